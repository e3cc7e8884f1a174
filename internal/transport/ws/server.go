package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/room-relay/internal/domain"
	"github.com/cwrk-planet/room-relay/internal/metrics"
	"github.com/cwrk-planet/room-relay/internal/service"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type Config struct {
	AllowedOrigins []string
	MaxMessageSize int64
	PingInterval   time.Duration
	SendBuffer     int

	// RateBurst frames per RateInterval, refilled continuously.
	RateBurst    int
	RateInterval time.Duration
}

func (c *Config) withDefaults() {
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 15 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 5
	}
	if c.RateInterval <= 0 {
		c.RateInterval = time.Second
	}
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	relay    *service.Relay
	metrics  *metrics.Metrics
	cfg      Config
}

func NewServer(hub *Hub, relay *service.Relay, m *metrics.Metrics, cfg Config) *Server {
	cfg.withDefaults()
	origins := newOriginPolicy(cfg.AllowedOrigins)

	return &Server{
		hub:     hub,
		relay:   relay,
		metrics: m,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
	}
}

// WS endpoint: GET /ws
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.Warn("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newWsConn(conn, r.RemoteAddr, s.cfg.SendBuffer)
	sess, err := s.relay.Connect(c)
	if err != nil {
		slog.Warn("ws connect rejected", "remote", r.RemoteAddr, "err", err)
		_ = c.Close()
		return
	}
	c.id = sess.ConnID

	s.hub.Add(c)
	defer s.hub.Remove(c)

	slog.Info("ws connected", "conn", c.id, "remote", c.addr)

	go c.writeLoop(s.cfg.PingInterval)
	s.readLoop(c)

	s.relay.Leave(c.id)
	_ = c.Close()
	slog.Info("ws disconnected", "conn", c.id, "remote", c.addr)
}

func (s *Server) readLoop(c *wsConn) {
	limiter := rate.NewLimiter(
		rate.Limit(float64(s.cfg.RateBurst)/s.cfg.RateInterval.Seconds()),
		s.cfg.RateBurst,
	)

	c.conn.SetReadLimit(s.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingInterval))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("ws read failed", "conn", c.id, "err", err)
			}
			return
		}
		if !limiter.Allow() {
			s.metrics.Rejected("rate_limited")
			slog.Debug("ws rate limit exceeded", "conn", c.id)
			continue
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.metrics.Rejected("malformed")
			continue
		}
		s.dispatch(c, msg)
	}
}

func (s *Server) dispatch(c *wsConn, msg inbound) {
	switch msg.Type {
	case domain.EventJoinRoom:
		var p domain.JoinRoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.metrics.Rejected("malformed")
			return
		}
		if _, err := s.relay.Join(c.id, p.RoomID, p.Username); err != nil {
			slog.Debug("ws join dropped", "conn", c.id, "room", p.RoomID, "err", err)
		}

	case domain.EventChatMessage:
		var p domain.ChatMessagePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			s.metrics.Rejected("malformed")
			return
		}
		if _, err := s.relay.SendAs(c.id, p.Room, p.Username, p.Text); err != nil {
			slog.Debug("ws message dropped", "conn", c.id, "room", p.Room, "err", err)
		}

	default:
		// ignore
	}
}
