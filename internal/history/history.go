// Package history persists per-conversation chat logs shared between the
// bridge and the desktop configurator.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultTailChars bounds how much history feeds back into a prompt.
const DefaultTailChars = 2000

// Store writes append-only conversation logs, one file per conversation
// id. No locking: each turn is a single append, and reads only trim.
// Concurrent writers to the same conversation get whatever ordering the
// filesystem's append semantics give them.
type Store struct {
	dir string
}

// NewStore opens (and creates if needed) the history directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// Append writes one "[sender]: text" line to the conversation's log,
// creating the log if absent.
func (s *Store) Append(conversationID, sender, text string) error {
	f, err := os.OpenFile(s.path(conversationID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "[%s]: %s\n", sender, text); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// ReadTail returns the trailing maxChars characters of the conversation's
// log, or "" when the log does not exist. maxChars <= 0 means the default
// budget.
func (s *Store) ReadTail(conversationID string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultTailChars
	}

	data, err := os.ReadFile(s.path(conversationID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read history: %w", err)
	}

	content := string(data)
	if len(content) > maxChars {
		content = content[len(content)-maxChars:]
		// The byte cut can land inside a multi-byte rune (Vietnamese
		// history lines); drop the torn prefix so the tail stays valid
		// UTF-8.
		for len(content) > 0 && !utf8.RuneStart(content[0]) {
			content = content[1:]
		}
	}
	return content, nil
}

func (s *Store) path(conversationID string) string {
	return filepath.Join(s.dir, sanitizeID(conversationID)+".txt")
}

// sanitizeID keeps conversation ids filesystem-safe. Telegram chat ids
// are numeric, but the HTTP API accepts arbitrary strings.
func sanitizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "_"
	}
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
