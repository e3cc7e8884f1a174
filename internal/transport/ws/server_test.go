package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/room-relay/internal/domain"
	"github.com/cwrk-planet/room-relay/internal/service"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, *service.Relay, *Hub) {
	t.Helper()
	return newTestServerWith(t, cfg, service.Options{})
}

func newTestServerWith(t *testing.T, cfg Config, opts service.Options) (*httptest.Server, *service.Relay, *Hub) {
	t.Helper()
	relay := service.NewRelay(service.ResponderFunc(func(context.Context, string) (string, error) {
		return "on it", nil
	}), opts)
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(NewServer(hub, relay, nil, cfg).HandleWS))
	t.Cleanup(func() {
		_ = relay.Close(context.Background())
		srv.Close()
	})
	return srv, relay, hub
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func write(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": typ, "payload": payload}))
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func readMessage(t *testing.T, conn *websocket.Conn) domain.Message {
	t.Helper()
	f := read(t, conn)
	require.Equal(t, domain.EventNewMessage, f.Type)
	var m domain.Message
	require.NoError(t, json.Unmarshal(f.Payload, &m))
	return m
}

func TestWS_GeneralRoomScenario(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{})
	a := dial(t, srv, nil)
	b := dial(t, srv, nil)

	write(t, a, domain.EventJoinRoom, domain.JoinRoomPayload{RoomID: "general", Username: "A"})
	f := read(t, a)
	require.Equal(t, domain.EventRoomInfo, f.Type)
	assert.JSONEq(t, `{"online":1,"messages":[]}`, string(f.Payload))

	write(t, b, domain.EventJoinRoom, domain.JoinRoomPayload{RoomID: "general", Username: "B"})
	f = read(t, b)
	require.Equal(t, domain.EventRoomInfo, f.Type)
	assert.JSONEq(t, `{"online":2,"messages":[]}`, string(f.Payload))

	f = read(t, a)
	require.Equal(t, domain.EventUserJoined, f.Type)
	assert.JSONEq(t, `{"username":"B"}`, string(f.Payload))

	write(t, a, domain.EventChatMessage, domain.ChatMessagePayload{Text: "hi", Room: "general", Username: "A"})
	for _, c := range []*websocket.Conn{a, b} {
		m := readMessage(t, c)
		assert.Equal(t, "A", m.Username)
		assert.Equal(t, "hi", m.Text)
		assert.Equal(t, domain.KindUser, m.Type)
	}

	write(t, b, domain.EventChatMessage, domain.ChatMessagePayload{Text: "@ai help", Room: "general", Username: "B"})
	for _, c := range []*websocket.Conn{a, b} {
		m := readMessage(t, c)
		assert.Equal(t, domain.KindUser, m.Type)
		reply := readMessage(t, c)
		assert.Equal(t, domain.KindAssistant, reply.Type)
		assert.Equal(t, "on it", reply.Text)
	}
}

func TestWS_DisconnectNotifiesRoom(t *testing.T) {
	srv, relay, hub := newTestServer(t, Config{})
	a := dial(t, srv, nil)
	b := dial(t, srv, nil)

	write(t, a, domain.EventJoinRoom, domain.JoinRoomPayload{RoomID: "general", Username: "A"})
	read(t, a)
	write(t, b, domain.EventJoinRoom, domain.JoinRoomPayload{RoomID: "general", Username: "B"})
	read(t, b)
	read(t, a) // userJoined

	require.NoError(t, b.Close())

	f := read(t, a)
	require.Equal(t, domain.EventUserLeft, f.Type)
	assert.JSONEq(t, `{"username":"B"}`, string(f.Payload))

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	room, err := relay.GetRoom("general")
	require.NoError(t, err)
	assert.Equal(t, 1, room.Online)
}

func TestWS_MismatchedClaimDropped(t *testing.T) {
	srv, relay, _ := newTestServer(t, Config{})
	a := dial(t, srv, nil)

	write(t, a, domain.EventJoinRoom, domain.JoinRoomPayload{RoomID: "general", Username: "A"})
	read(t, a)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("not json")))
	write(t, a, "unknownEvent", map[string]string{})
	write(t, a, domain.EventChatMessage, domain.ChatMessagePayload{Text: "sneaky", Room: "other", Username: "A"})
	write(t, a, domain.EventChatMessage, domain.ChatMessagePayload{Text: "ok", Room: "general", Username: "A"})

	m := readMessage(t, a)
	assert.Equal(t, "ok", m.Text)

	room, err := relay.GetRoom("general")
	require.NoError(t, err)
	require.Len(t, room.Messages, 1)
}

func TestWS_RateLimitDropsExcessFrames(t *testing.T) {
	srv, relay, _ := newTestServer(t, Config{RateBurst: 2, RateInterval: time.Hour})
	a := dial(t, srv, nil)

	write(t, a, domain.EventJoinRoom, domain.JoinRoomPayload{RoomID: "general", Username: "A"})
	read(t, a)
	write(t, a, domain.EventChatMessage, domain.ChatMessagePayload{Text: "one", Room: "general", Username: "A"})
	readMessage(t, a)
	write(t, a, domain.EventChatMessage, domain.ChatMessagePayload{Text: "two", Room: "general", Username: "A"})

	require.NoError(t, a.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var f frame
	require.Error(t, a.ReadJSON(&f))

	room, err := relay.GetRoom("general")
	require.NoError(t, err)
	assert.Len(t, room.Messages, 1)
}

func TestWS_OriginPolicy(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{AllowedOrigins: []string{"http://localhost:5000"}})
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dial(t, srv, http.Header{"Origin": {"HTTP://LOCALHOST:5000"}})
	assert.NotNil(t, conn)
}

func TestWS_RelayCloseDisconnectsClients(t *testing.T) {
	srv, relay, hub := newTestServer(t, Config{})
	a := dial(t, srv, nil)
	write(t, a, domain.EventJoinRoom, domain.JoinRoomPayload{RoomID: "general", Username: "A"})
	read(t, a)

	require.NoError(t, relay.Close(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, hub.Wait(ctx))

	require.NoError(t, a.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := a.ReadMessage()
	require.Error(t, err)
}

type nopSink struct{}

func (nopSink) Send(domain.Event) error { return nil }

func TestWS_StuckClientDoesNotStallRelay(t *testing.T) {
	srv, relay, _ := newTestServerWith(t, Config{SendBuffer: 32}, service.Options{Retain: 30})

	sender, err := relay.Connect(nopSink{})
	require.NoError(t, err)
	_, err = relay.Join(sender.ConnID, "general", "sender")
	require.NoError(t, err)

	// joins and never reads again
	stuck := dial(t, srv, nil)
	write(t, stuck, domain.EventJoinRoom, domain.JoinRoomPayload{RoomID: "general", Username: "stuck"})
	require.Eventually(t, func() bool {
		room, err := relay.GetRoom("general")
		return err == nil && room.Online == 2
	}, 2*time.Second, 5*time.Millisecond)

	big := strings.Repeat("x", 256<<10)
	var worst time.Duration
	for i := 0; i < 200; i++ {
		start := time.Now()
		_, err := relay.Send(sender.ConnID, big)
		require.NoError(t, err)
		worst = max(worst, time.Since(start))
	}
	assert.Less(t, worst, 300*time.Millisecond, "worst Send latency")

	// the dropped socket goes through the normal leave path
	require.Eventually(t, func() bool {
		room, err := relay.GetRoom("general")
		return err == nil && room.Online == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestNormalizeOrigin(t *testing.T) {
	n, ok := normalizeOrigin("HTTPS://Example.COM:8443")
	require.True(t, ok)
	assert.Equal(t, "https://example.com:8443", n)

	_, ok = normalizeOrigin("example.com")
	assert.False(t, ok)

	p := newOriginPolicy([]string{" * "})
	assert.True(t, p.allowAll)
}
