package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/room-relay/internal/domain"
	"github.com/cwrk-planet/room-relay/internal/metrics"
	"github.com/cwrk-planet/room-relay/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultReplayWindow  = 30
	DefaultRetain        = 1000
	DefaultAssistantName = "CodeGuard AI"
)

var DefaultTriggers = []string{"@ai", "bug", "error", "fix", "help"}

type Options struct {
	ReplayWindow  int
	Retain        int // сообщений на комнату в памяти; не меньше ReplayWindow
	AssistantName string
	Triggers      []string

	Metrics *metrics.Metrics
	Now     func() time.Time
}

func (o *Options) withDefaults() {
	if o.ReplayWindow <= 0 {
		o.ReplayWindow = DefaultReplayWindow
	}
	if o.Retain <= 0 {
		o.Retain = DefaultRetain
	}
	if o.Retain < o.ReplayWindow {
		o.Retain = o.ReplayWindow
	}
	if o.AssistantName == "" {
		o.AssistantName = DefaultAssistantName
	}
	if len(o.Triggers) == 0 {
		o.Triggers = DefaultTriggers
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Relay owns the room table and the connection registry. One mutex
// serializes every join, leave, send and reply so that membership,
// log appends and replay snapshots are consistent with each other.
type Relay struct {
	mu     sync.Mutex
	rooms  *store.RoomTable
	conns  *store.Registry
	nextID int64
	closed bool

	responder Responder
	opts      Options
	metrics   *metrics.Metrics
	tracer    trace.Tracer

	baseCtx context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup
}

func NewRelay(responder Responder, opts Options) *Relay {
	opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Relay{
		rooms:     store.NewRoomTable(opts.Retain),
		conns:     store.NewRegistry(),
		responder: responder,
		opts:      opts,
		metrics:   opts.Metrics,
		tracer:    otel.Tracer("github.com/cwrk-planet/room-relay/internal/service"),
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

// Connect registers a new transport session with a generated display name.
func (r *Relay) Connect(sink store.Sink) (domain.Session, error) {
	s := domain.Session{
		ConnID:   uuid.NewString(),
		Username: "Guest-" + uuid.NewString()[:6],
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.Session{}, domain.ErrRelayClosed
	}
	r.conns.Put(s, sink)
	r.metrics.SetConnections(r.conns.Len())

	slog.Debug("relay connect", "conn", s.ConnID, "user", s.Username)
	return s, nil
}

func (r *Relay) Session(connID string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns.Get(connID)
}

// Close stops accepting events, closes every sink that can be closed and
// waits for in-flight assistant calls until ctx expires. Replies that
// resolve after Close are dropped.
func (r *Relay) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	sinks := r.conns.Sinks()
	r.mu.Unlock()

	r.cancel()

	for id, sink := range sinks {
		c, ok := sink.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			slog.Debug("relay close sink failed", "conn", id, "err", err)
		}
	}

	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		slog.Warn("relay close: assistant calls still pending")
		return ctx.Err()
	}
}

// --- helpers (r.mu must be held) ---

func (r *Relay) newMessage(author, text string, kind domain.Kind) domain.Message {
	r.nextID++
	return domain.Message{
		ID:        r.nextID,
		Username:  author,
		Text:      text,
		Type:      kind,
		Timestamp: r.opts.Now().Format("3:04:05 PM"),
	}
}

func (r *Relay) appendMessage(room *store.Room, m domain.Message) {
	room.Append(m)
	r.metrics.MessageAppended(string(m.Type))
}

// deliver is best-effort: a failing sink never stops delivery to the rest.
func (r *Relay) deliver(connID string, ev domain.Event) {
	sink := r.conns.Sink(connID)
	if sink == nil {
		return
	}
	if err := sink.Send(ev); err != nil {
		r.metrics.DeliveryDropped()
		slog.Warn("relay deliver failed", "conn", connID, "event", ev.Type, "err", err)
	}
}

// broadcast sends ev to every member of room except skip ("" skips nobody).
func (r *Relay) broadcast(room *store.Room, ev domain.Event, skip string) {
	for _, id := range room.Members() {
		if id == skip {
			continue
		}
		r.deliver(id, ev)
	}
}
