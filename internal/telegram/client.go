// Package telegram implements the thin slice of the Telegram Bot API the
// bridge needs: long polling for updates, sending replies, and the typing
// indicator.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// MaxMessageLen is Telegram's hard limit per message. Replies longer than
// this are split.
const MaxMessageLen = 4096

// Client is a minimal Telegram Bot API client.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a client for one bot token. baseURL overrides the
// Telegram endpoint for tests; pass "" for the real one.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		token:   token,
		baseURL: baseURL,
		// Long polls hold the connection open for up to the poll timeout,
		// so the client timeout sits above it.
		http: &http.Client{Timeout: 70 * time.Second},
	}
}

// Update is one long-poll result entry.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// User identifies a Telegram account.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// Chat identifies a conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// DisplayName returns the best human-readable name for a sender.
func (u *User) DisplayName() string {
	if u == nil {
		return "User"
	}
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "User"
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return fmt.Errorf("telegram %s returned unparseable response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram %s rejected: %s", method, api.Description)
	}
	if result != nil {
		return json.Unmarshal(api.Result, result)
	}
	return nil
}

// GetMe fetches the bot's own identity. Used at startup to verify the
// token before entering the poll loop.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", map[string]any{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for new updates past offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         timeoutSec,
		"allowed_updates": []string{"message"},
	}, &updates)
	return updates, err
}

// SendMessage delivers text to a chat, splitting to respect the message
// length limit. Each chunk goes out as HTML first; if Telegram rejects the
// markup it is resent as plain text so the reply is never dropped.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range SplitMessage(text, MaxMessageLen) {
		err := c.call(ctx, "sendMessage", map[string]any{
			"chat_id":    chatID,
			"text":       chunk,
			"parse_mode": "HTML",
		}, nil)
		if err != nil {
			err = c.call(ctx, "sendMessage", map[string]any{
				"chat_id": chatID,
				"text":    chunk,
			}, nil)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SendTyping shows the typing indicator in a chat. Best effort.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	return c.call(ctx, "sendChatAction", map[string]any{
		"chat_id": chatID,
		"action":  "typing",
	}, nil)
}

// SplitMessage cuts text into chunks of at most limit bytes, preferring
// newline boundaries.
func SplitMessage(text string, limit int) []string {
	if text == "" {
		return []string{""}
	}
	var chunks []string
	for len(text) > limit {
		cut := limit
		if i := lastNewlineBefore(text, limit); i > 0 {
			cut = i
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
		if len(text) > 0 && text[0] == '\n' {
			text = text[1:]
		}
	}
	if len(text) > 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

func lastNewlineBefore(s string, limit int) int {
	for i := limit - 1; i > 0; i-- {
		if s[i] == '\n' {
			return i
		}
	}
	return -1
}
