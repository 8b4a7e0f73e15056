// Package bridge connects inbound chat messages to LLM providers: it
// resolves the agent's model and credential, builds the prompt, and turns
// provider failures into user-facing system messages.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/openclaw/bridge/internal/config"
	"github.com/openclaw/bridge/internal/provider"
)

// DefaultTemperature is the sampling temperature for all chat turns.
const DefaultTemperature = 0.7

// Dispatcher resolves model, provider and credential for an agent and
// performs one chat completion. Config and credentials are fetched per
// call so live edits apply without restarting.
type Dispatcher struct {
	config  func() *config.Config
	auth    func() *config.AuthProfiles
	factory func(tag, apiKey, baseURL string) (provider.Provider, error)

	endpoints map[string]string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithEndpoint overrides one provider's base URL. Tests and self-hosted
// gateways use this.
func WithEndpoint(tag, baseURL string) Option {
	return func(d *Dispatcher) { d.endpoints[tag] = baseURL }
}

// WithProviderFactory replaces the provider constructor.
func WithProviderFactory(f func(tag, apiKey, baseURL string) (provider.Provider, error)) Option {
	return func(d *Dispatcher) { d.factory = f }
}

// NewDispatcher builds a dispatcher over live config and credential
// sources.
func NewDispatcher(cfg func() *config.Config, auth func() *config.AuthProfiles, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		config:    cfg,
		auth:      auth,
		factory:   provider.New,
		endpoints: map[string]string{},
		limiters:  map[string]*rate.Limiter{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// limiter returns the per-provider rate limiter, creating it on first
// use. Two requests per second with a small burst keeps one chatty
// conversation from tripping provider-side quotas.
func (d *Dispatcher) limiter(tag string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[tag]
	if !ok {
		l = rate.NewLimiter(rate.Limit(2), 4)
		d.limiters[tag] = l
	}
	return l
}

// Dispatch runs one chat turn for an agent. historyTail is the trailing
// conversation context, already trimmed by the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, agent, text, historyTail string) (string, error) {
	cfg := d.config()

	rawModel := cfg.ModelFor(agent)
	tag := provider.Detect(rawModel)
	model := provider.Normalize(rawModel, tag)

	apiKey := ""
	if provider.NeedsCredential(tag) {
		secret, err := d.auth().Resolve(agent, tag)
		if err != nil {
			slog.Warn("credential resolution failed",
				"agent", agent, "provider", tag, "error", err)
			return "", &provider.ClassifiedError{
				Type:     provider.ErrorTypeMissingCredential,
				Message:  fmt.Sprintf("no API key for provider %q", tag),
				Original: err,
			}
		}
		apiKey = secret
	}

	p, err := d.factory(tag, apiKey, d.endpoints[tag])
	if err != nil {
		return "", err
	}

	if err := d.limiter(tag).Wait(ctx); err != nil {
		return "", provider.ClassifyError(err, 0, "")
	}

	slog.Info("dispatching", "agent", agent, "provider", tag, "model", model)

	resp, err := p.Chat(ctx, &provider.ChatRequest{
		Model: model,
		Messages: []provider.Message{
			{Role: "user", Content: buildPrompt(historyTail, text, agent)},
		},
		Temperature: DefaultTemperature,
	})
	if err != nil {
		slog.Warn("chat failed", "agent", agent, "provider", tag, "model", model, "error", err)
		return "", err
	}
	return resp.Text, nil
}

// buildPrompt frames the turn the way every agent expects it: trailing
// context first, the new message, then the persona line.
func buildPrompt(historyTail, text, agent string) string {
	return fmt.Sprintf("Context:\n%s\n\nUser: %s\n\nYou are %s.", historyTail, text, agent)
}

// FailureReply maps a dispatch error to the system message shown in
// chat. Users see these, so they name the fix, not the internals.
func FailureReply(err error) string {
	var ce *provider.ClassifiedError
	if !errors.As(err, &ce) {
		return "[System] Error: " + err.Error()
	}
	switch ce.Type {
	case provider.ErrorTypeMissingCredential:
		return "[System] No API key is configured for this agent's provider. Add one in the configurator or with the auth command."
	case provider.ErrorTypeUnsupported:
		return "[System] " + ce.Message
	case provider.ErrorTypeAuth:
		return "[System] The provider rejected the API key. Check that it is still valid."
	case provider.ErrorTypeRateLimit:
		return "[System] The provider is rate limiting requests. Try again in a moment."
	case provider.ErrorTypeNotFound:
		return "[System] The configured model was not found on the provider."
	case provider.ErrorTypeTransport:
		return "[System] Could not reach the provider. Check your connection and try again."
	default:
		return "[System] Provider error: " + ce.Message
	}
}
