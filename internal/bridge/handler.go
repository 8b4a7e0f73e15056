package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/openclaw/bridge/internal/history"
	"github.com/openclaw/bridge/internal/router"
)

// Inbound is one incoming chat message, channel-agnostic.
type Inbound struct {
	ConversationID string
	Sender         string
	Text           string
}

// Outbound is the bridge's reply for one inbound message.
type Outbound struct {
	ID    string // unique per reply, for channel-side dedup and logs
	Agent string
	Text  string
}

// Replier produces a reply for an agent given the new message and the
// trailing conversation context.
type Replier interface {
	Dispatch(ctx context.Context, agent, text, historyTail string) (string, error)
}

// Handler runs the full message pipeline: persist the user turn, pick the
// agent, dispatch, persist the reply. A non-empty forcedAgent pins every
// message to that agent and skips keyword routing.
type Handler struct {
	store       *history.Store
	replier     Replier
	forcedAgent string
}

// NewHandler wires the pipeline. forcedAgent may be "".
func NewHandler(store *history.Store, replier Replier, forcedAgent string) *Handler {
	return &Handler{store: store, replier: replier, forcedAgent: forcedAgent}
}

// HandleMessage processes one message end to end. typing, if non-nil, is
// called once after routing so the channel can show a typing indicator
// while the provider call runs. Dispatch failures come back as a system
// reply, not an error: the conversation must keep flowing.
func (h *Handler) HandleMessage(ctx context.Context, in Inbound, typing func()) (Outbound, error) {
	sender := in.Sender
	if sender == "" {
		sender = "User"
	}
	if err := h.store.Append(in.ConversationID, sender, in.Text); err != nil {
		return Outbound{}, fmt.Errorf("failed to record message: %w", err)
	}

	agent := h.forcedAgent
	if agent == "" {
		agent = router.Route(in.Text)
	}

	if typing != nil {
		typing()
	}

	tail, err := h.store.ReadTail(in.ConversationID, 0)
	if err != nil {
		return Outbound{}, fmt.Errorf("failed to read history: %w", err)
	}

	reply, err := h.replier.Dispatch(ctx, agent, in.Text, tail)
	if err != nil {
		reply = FailureReply(err)
	}

	text := reply
	// Auto-routed replies carry the agent tag so multi-agent chats stay
	// readable, system messages included. A forced agent is the only
	// voice, no tag needed.
	if h.forcedAgent == "" {
		text = fmt.Sprintf("[%s] %s", strings.ToUpper(agent), reply)
	}

	if err := h.store.Append(in.ConversationID, agent, reply); err != nil {
		return Outbound{}, fmt.Errorf("failed to record reply: %w", err)
	}

	return Outbound{ID: uuid.NewString(), Agent: agent, Text: text}, nil
}
