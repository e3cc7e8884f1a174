package service

import (
	"log/slog"
	"strings"

	"github.com/cwrk-planet/room-relay/internal/domain"
)

type JoinResult struct {
	Online  int
	History []domain.Message
}

// Join moves the connection into roomID. The previous room (if different)
// gets userLeft, the other members of roomID get userJoined and the joiner
// alone gets roomInfo with the replay window. An empty username keeps the
// current display name. Re-joining the current room under the same name only
// refreshes roomInfo.
func (r *Relay) Join(connID, roomID, username string) (JoinResult, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		r.metrics.Rejected("invalid_room")
		return JoinResult{}, domain.ErrInvalidRoom
	}
	username = strings.TrimSpace(username)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return JoinResult{}, domain.ErrRelayClosed
	}
	s, ok := r.conns.Get(connID)
	if !ok {
		return JoinResult{}, domain.ErrUnknownConn
	}

	prevUser := s.Username
	if s.Joined() && s.RoomID != roomID && r.rooms.RemoveMember(s.RoomID, connID) {
		prev := r.rooms.Get(s.RoomID)
		r.broadcast(prev, domain.UserLeft(prevUser), connID)
		slog.Info("user left", "conn", connID, "user", prevUser, "room", prev.ID, "online", prev.Online())
	}

	room, created := r.rooms.GetOrCreate(roomID)
	if created {
		r.metrics.SetRooms(r.rooms.Len())
	}
	added := room.Add(connID)

	renamed := username != "" && username != s.Username
	if renamed {
		s.Username = username
	}
	s.RoomID = roomID
	r.conns.Set(s)

	res := JoinResult{
		Online:  room.Online(),
		History: room.Tail(r.opts.ReplayWindow),
	}
	r.deliver(connID, domain.RoomInfo(res.Online, res.History))
	// повторный join в ту же комнату под тем же именем остальным не виден
	if added || renamed {
		r.broadcast(room, domain.UserJoined(s.Username), connID)
	}

	slog.Info("user joined", "conn", connID, "user", s.Username, "room", roomID, "online", res.Online)
	return res, nil
}

// Leave handles a transport disconnect. Unknown connections are a no-op.
func (r *Relay) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.conns.Remove(connID)
	if !ok {
		return
	}
	r.metrics.SetConnections(r.conns.Len())

	if !s.Joined() || !r.rooms.RemoveMember(s.RoomID, connID) {
		return
	}
	room := r.rooms.Get(s.RoomID)
	r.broadcast(room, domain.UserLeft(s.Username), "")
	slog.Info("user left", "conn", connID, "user", s.Username, "room", room.ID, "online", room.Online())
}
