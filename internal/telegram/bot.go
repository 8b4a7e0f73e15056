package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/openclaw/bridge/internal/bridge"
)

// pollTimeoutSec is the Telegram long-poll hold time.
const pollTimeoutSec = 50

// queueDepth bounds how many messages a single conversation can have
// waiting; beyond that new messages are dropped with a log line rather
// than stalling the poll loop.
const queueDepth = 16

// Handler is the message pipeline a bot feeds.
type Handler interface {
	HandleMessage(ctx context.Context, in bridge.Inbound, typing func()) (bridge.Outbound, error)
}

// Bot runs the long-poll loop for one bot token and hands every text
// message to the pipeline. Updates are handled concurrently across
// conversations, so one slow provider call never stalls unrelated chats;
// within a conversation messages stay in arrival order.
type Bot struct {
	name    string
	client  *Client
	handler Handler

	mu     sync.Mutex
	queues map[int64]chan *Message
	wg     sync.WaitGroup
}

// NewBot wires a bot. name is only used in logs.
func NewBot(name string, client *Client, handler Handler) *Bot {
	return &Bot{
		name:    name,
		client:  client,
		handler: handler,
		queues:  make(map[int64]chan *Message),
	}
}

// Run polls until the context is canceled. Poll errors back off and
// retry; the loop only exits on cancellation, after draining the
// per-conversation workers.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return err
	}
	slog.Info("bot online", "bot", b.name, "username", me.Username)

	defer b.wg.Wait()

	var offset int64
	for {
		updates, err := b.client.GetUpdates(ctx, offset, pollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("poll failed, retrying", "bot", b.name, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			b.enqueue(ctx, u.Message)
		}
	}
}

// enqueue hands a message to its conversation's worker, starting the
// worker on first contact. Each conversation gets its own goroutine so
// a slow dispatch in one chat cannot block another.
func (b *Bot) enqueue(ctx context.Context, msg *Message) {
	chatID := msg.Chat.ID

	b.mu.Lock()
	q, ok := b.queues[chatID]
	if !ok {
		q = make(chan *Message, queueDepth)
		b.queues[chatID] = q
		b.wg.Add(1)
		go b.worker(ctx, q)
	}
	b.mu.Unlock()

	select {
	case q <- msg:
	default:
		slog.Warn("conversation backlog full, dropping message", "bot", b.name, "chat", chatID)
	}
}

func (b *Bot) worker(ctx context.Context, q chan *Message) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-q:
			b.handleUpdate(ctx, msg)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, msg *Message) {
	chatID := msg.Chat.ID
	in := bridge.Inbound{
		ConversationID: strconv.FormatInt(chatID, 10),
		Sender:         msg.From.DisplayName(),
		Text:           msg.Text,
	}

	out, err := b.handler.HandleMessage(ctx, in, func() {
		if err := b.client.SendTyping(ctx, chatID); err != nil {
			slog.Debug("typing indicator failed", "bot", b.name, "error", err)
		}
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("message handling failed", "bot", b.name, "chat", chatID, "error", err)
		}
		return
	}

	if err := b.client.SendMessage(ctx, chatID, out.Text); err != nil {
		slog.Error("send failed", "bot", b.name, "chat", chatID, "reply", out.ID, "error", err)
	}
}
