package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Environment overrides.
const (
	EnvConfig    = "OPENCLAW_CONFIG"     // path to a custom openclaw.json
	EnvConfigDir = "OPENCLAW_CONFIG_DIR" // path to a custom .openclaw dir
)

// DefaultAgentKey is the reserved agent name used as the routing and
// configuration fallback. No user agent may take this name.
const DefaultAgentKey = "defaults"

// DefaultModel is used when neither the agent nor the defaults entry
// carries a model.
const DefaultModel = "google/gemini-2.0-flash-thinking-exp-1219"

// Config is the OpenClaw configuration document. The desktop configurator
// owns and edits this file; the bridge only reads it.
type Config struct {
	Agents   map[string]AgentConfig `mapstructure:"agents" json:"agents,omitempty"`
	Channels ChannelsConfig         `mapstructure:"channels" json:"channels,omitempty"`
	Server   ServerConfig           `mapstructure:"server" json:"server,omitempty"`
}

// AgentConfig is one logical persona.
type AgentConfig struct {
	Model ModelConfig `mapstructure:"model" json:"model,omitempty"`
}

// ModelConfig binds an agent to a provider-qualified model identifier.
type ModelConfig struct {
	Primary string `mapstructure:"primary" json:"primary,omitempty"`
}

// ChannelsConfig holds the chat-transport channel settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram" json:"telegram,omitempty"`
}

// TelegramConfig carries the default bot token plus the named bot registry.
type TelegramConfig struct {
	BotToken string               `mapstructure:"botToken" json:"botToken,omitempty"`
	Bots     map[string]BotConfig `mapstructure:"bots" json:"bots,omitempty"`
}

// BotConfig is one bridge instance: its Telegram token and, optionally, a
// forced agent. An empty Agent means keyword auto-routing.
type BotConfig struct {
	Token string `mapstructure:"token" json:"token,omitempty"`
	Agent string `mapstructure:"agent" json:"agent,omitempty"`
}

// ServerConfig configures the bridge's local HTTP API.
type ServerConfig struct {
	Port     int    `mapstructure:"port" json:"port,omitempty"`
	Hostname string `mapstructure:"hostname" json:"hostname,omitempty"`
}

// Dir returns the OpenClaw configuration directory (~/.openclaw).
func Dir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".openclaw"
	}
	return filepath.Join(home, ".openclaw")
}

// Path returns the configuration document path.
func Path() string {
	if path := os.Getenv(EnvConfig); path != "" {
		return path
	}
	return filepath.Join(Dir(), "openclaw.json")
}

// HistoryDir returns the shared conversation-history directory.
func HistoryDir() string {
	return filepath.Join(Dir(), "history")
}

// Load reads the configuration document. A missing or unreadable file is
// logged and treated as an empty config, never as a fatal error: the
// bridge must keep serving with defaults while the configurator is being
// set up.
func Load() *Config {
	return LoadFrom(Path())
}

// LoadFrom reads a configuration document from an explicit path.
func LoadFrom(path string) *Config {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read config, using empty config", "path", path, "error", err)
		}
		return cfg
	}

	// The configurator writes UTF-8 with BOM on some platforms.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		slog.Warn("failed to parse config, using empty config", "path", path, "error", err)
		return &Config{}
	}
	if err := v.Unmarshal(cfg); err != nil {
		slog.Warn("failed to decode config, using empty config", "path", path, "error", err)
		return &Config{}
	}

	return cfg
}

// ModelFor returns the raw model identifier for an agent, falling back to
// the defaults entry and finally to DefaultModel.
func (c *Config) ModelFor(agent string) string {
	if a, ok := c.Agents[agent]; ok && a.Model.Primary != "" {
		return a.Model.Primary
	}
	if a, ok := c.Agents[DefaultAgentKey]; ok && a.Model.Primary != "" {
		return a.Model.Primary
	}
	return DefaultModel
}

// AgentNames returns configured agent names, sorted, excluding the
// reserved defaults entry.
func (c *Config) AgentNames() []string {
	names := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		if name == DefaultAgentKey {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bot looks up a named bridge bot.
func (c *Config) Bot(name string) (BotConfig, bool) {
	bot, ok := c.Channels.Telegram.Bots[name]
	return bot, ok
}

// ValidateAgentName rejects empty and reserved agent names.
func ValidateAgentName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("agent name must not be empty")
	}
	if name == DefaultAgentKey {
		return fmt.Errorf("agent name %q is reserved", DefaultAgentKey)
	}
	return nil
}

// Watcher keeps a Config fresh while the bridge is serving, so edits made
// in the configurator apply without a restart.
type Watcher struct {
	mu      sync.RWMutex
	cfg     *Config
	path    string
	watcher *fsnotify.Watcher
}

// NewWatcher loads the config and starts watching its path. Watching is
// best effort: if the watch cannot be established the initial snapshot
// still serves.
func NewWatcher(path string) *Watcher {
	w := &Watcher{
		cfg:  LoadFrom(path),
		path: path,
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("config watch unavailable", "error", err)
		return w
	}
	// Watch the directory: editors replace the file, which drops a watch
	// on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		slog.Warn("config watch unavailable", "path", path, "error", err)
		fw.Close()
		return w
	}
	w.watcher = fw

	go w.run()
	return w
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cfg := LoadFrom(w.path)
			w.mu.Lock()
			w.cfg = cfg
			w.mu.Unlock()
			slog.Info("config reloaded", "path", w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config watch error", "error", err)
		}
	}
}

// Current returns the latest config snapshot.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// Close stops watching.
func (w *Watcher) Close() {
	if w.watcher != nil {
		w.watcher.Close()
	}
}
