package service

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cwrk-planet/room-relay/internal/domain"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Send appends a user message to the sender's current room and broadcasts
// it to every member, sender included.
func (r *Relay) Send(connID, text string) (domain.Message, error) {
	return r.send(connID, nil, text)
}

// SendAs is Send for a chatMessage event: the claimed room and username
// must match the registered session, otherwise the message is dropped.
func (r *Relay) SendAs(connID, roomID, username, text string) (domain.Message, error) {
	return r.send(connID, &claim{roomID: roomID, username: username}, text)
}

type claim struct {
	roomID   string
	username string
}

// matches normalizes the claim the same way Join normalizes its input:
// fields are trimmed and an empty username stands for the current name.
func (c *claim) matches(s domain.Session) bool {
	if strings.TrimSpace(c.roomID) != s.RoomID {
		return false
	}
	name := strings.TrimSpace(c.username)
	return name == "" || name == s.Username
}

func (r *Relay) send(connID string, c *claim, text string) (domain.Message, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		r.metrics.Rejected("empty")
		return domain.Message{}, domain.ErrEmptyMessage
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.Message{}, domain.ErrRelayClosed
	}

	s, ok := r.conns.Get(connID)
	if !ok || !s.Joined() {
		r.mu.Unlock()
		r.metrics.Rejected("unauthorized")
		return domain.Message{}, domain.ErrUnauthorizedSend
	}
	if c != nil && !c.matches(s) {
		r.mu.Unlock()
		r.metrics.Rejected("claim_mismatch")
		return domain.Message{}, fmt.Errorf("%w: claimed %q as %q", domain.ErrUnauthorizedSend, c.roomID, c.username)
	}
	room := r.rooms.Get(s.RoomID)
	if room == nil || !room.Has(connID) {
		r.mu.Unlock()
		r.metrics.Rejected("unauthorized")
		return domain.Message{}, domain.ErrUnauthorizedSend
	}

	msg := r.newMessage(s.Username, body, domain.KindUser)
	r.appendMessage(room, msg)
	r.broadcast(room, domain.NewMessage(msg), "")

	trigger := r.triggered(body)
	if trigger {
		r.pending.Add(1)
	}
	r.mu.Unlock()

	if trigger {
		go r.reply(s.RoomID, text)
	}
	return msg, nil
}

func (r *Relay) triggered(text string) bool {
	lower := strings.ToLower(text)
	return lo.ContainsBy(r.opts.Triggers, func(t string) bool {
		return strings.Contains(lower, t)
	})
}

// reply runs without the relay lock. roomID is captured at trigger time so a
// reply never lands in a room the sender moved to afterwards.
func (r *Relay) reply(roomID, prompt string) {
	defer r.pending.Done()

	ctx, span := r.tracer.Start(r.baseCtx, "assistant.reply",
		trace.WithAttributes(attribute.String("room.id", roomID)))
	defer span.End()

	if r.responder == nil {
		r.metrics.AssistantOutcome("disabled")
		return
	}

	text, err := r.responder.Reply(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.AssistantOutcome("error")
		slog.WarnContext(ctx, "assistant reply failed", "room", roomID, "err", err)
		return
	}

	if err := r.relayReply(roomID, text); err != nil {
		r.metrics.AssistantOutcome("dropped")
		slog.DebugContext(ctx, "assistant reply dropped", "room", roomID, "err", err)
		return
	}
	r.metrics.AssistantOutcome("delivered")
}

func (r *Relay) relayReply(roomID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("%w: %w", domain.ErrStaleRoom, domain.ErrRelayClosed)
	}
	room := r.rooms.Get(roomID)
	if room == nil {
		return domain.ErrStaleRoom
	}

	msg := r.newMessage(r.opts.AssistantName, text, domain.KindAssistant)
	r.appendMessage(room, msg)
	r.broadcast(room, domain.NewMessage(msg), "")
	return nil
}
