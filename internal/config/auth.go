package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoCredential signals that the resolution chain found no usable
// secret. The dispatcher turns this into a "configure your API key"
// message, never a silent default.
var ErrNoCredential = errors.New("no credential found")

// Profile is one stored secret record. The configurator historically wrote
// the secret under either "key" or "apiKey", so both are read.
type Profile struct {
	Type     string `json:"type,omitempty"` // e.g. "api_key"
	Provider string `json:"provider,omitempty"`
	Key      string `json:"key,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
}

// Secret returns the stored secret, preferring the "key" field.
func (p Profile) Secret() string {
	if p.Key != "" {
		return p.Key
	}
	return p.APIKey
}

// AuthProfiles is the credential document. Profiles are keyed by the
// composite "<provider>:<owner>" where owner is an agent name or the
// reserved defaults marker.
type AuthProfiles struct {
	Profiles map[string]Profile `json:"profiles"`
}

// ProfileKey builds the composite store key.
func ProfileKey(provider, owner string) string {
	return provider + ":" + owner
}

// AuthProfilesPath returns the credential document path.
func AuthProfilesPath() string {
	return filepath.Join(Dir(), "auth-profiles.json")
}

// LoadAuthProfiles reads the credential document. Missing or unreadable
// files yield an empty store.
func LoadAuthProfiles() *AuthProfiles {
	return LoadAuthProfilesFrom(AuthProfilesPath())
}

// LoadAuthProfilesFrom reads the credential document from an explicit path.
func LoadAuthProfilesFrom(path string) *AuthProfiles {
	empty := &AuthProfiles{Profiles: map[string]Profile{}}

	data, err := os.ReadFile(path)
	if err != nil {
		return empty
	}
	data = []byte(strings.TrimPrefix(string(data), "\xef\xbb\xbf"))

	var store AuthProfiles
	if err := json.Unmarshal(data, &store); err != nil {
		return empty
	}
	if store.Profiles == nil {
		store.Profiles = map[string]Profile{}
	}
	return &store
}

// Save writes the credential document with restrictive permissions.
func (a *AuthProfiles) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Set stores a profile under "<provider>:<owner>", overwriting any
// previous record for that pair.
func (a *AuthProfiles) Set(provider, owner string, p Profile) {
	if a.Profiles == nil {
		a.Profiles = map[string]Profile{}
	}
	a.Profiles[ProfileKey(provider, owner)] = p
}

// Resolve finds the secret for an agent/provider pair. The chain, first
// hit wins:
//
//  1. Exact composite key "<provider>:<agent>".
//  2. "<provider>:defaults".
//  3. Any profile whose declared provider field matches, or whose key's
//     provider segment matches.
//  4. Google only: any profile with a non-empty secret at all. Risky,
//     since the returned key may belong to another provider; kept strictly
//     for parity with the configurator's historical behavior.
//
// The "ollama" provider needs no secret and resolves trivially. Scans in
// steps 3 and 4 walk keys in sorted order so resolution is deterministic
// for identical store contents.
func (a *AuthProfiles) Resolve(agentName, provider string) (string, error) {
	if provider == "ollama" {
		return "", nil
	}

	for _, candidate := range []string{
		ProfileKey(provider, agentName),
		ProfileKey(provider, DefaultAgentKey),
	} {
		if p, ok := a.Profiles[candidate]; ok {
			if secret := p.Secret(); secret != "" {
				return secret, nil
			}
		}
	}

	for _, key := range a.sortedKeys() {
		p := a.Profiles[key]
		if p.Provider == provider || keyProvider(key) == provider {
			if secret := p.Secret(); secret != "" {
				return secret, nil
			}
		}
	}

	if provider == "google" {
		// Last resort: grab any stored secret regardless of provider.
		for _, key := range a.sortedKeys() {
			if secret := a.Profiles[key].Secret(); secret != "" {
				return secret, nil
			}
		}
	}

	return "", fmt.Errorf("%w for agent %q and provider %q", ErrNoCredential, agentName, provider)
}

func (a *AuthProfiles) sortedKeys() []string {
	keys := make([]string, 0, len(a.Profiles))
	for k := range a.Profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// keyProvider extracts the provider segment of a composite key, or ""
// when the key has no separator.
func keyProvider(key string) string {
	if i := strings.Index(key, ":"); i >= 0 {
		return key[:i]
	}
	return ""
}
