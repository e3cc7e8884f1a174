package service

import (
	"github.com/cwrk-planet/room-relay/internal/domain"
)

type RoomSummary struct {
	ID     string
	Online int
}

type RoomDetail struct {
	ID       string
	Online   int
	Messages []domain.Message
}

// ListRooms returns rooms ordered by id with cursor pagination.
func (r *Relay) ListRooms(limit int, cursor string) ([]RoomSummary, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, next, err := r.rooms.Page(cursor, limit)
	if err != nil {
		return nil, "", err
	}
	out := make([]RoomSummary, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, RoomSummary{ID: rm.ID, Online: rm.Online()})
	}
	return out, next, nil
}

// GetRoom returns the online count and the replay window of a room.
func (r *Relay) GetRoom(id string) (RoomDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.rooms.Get(id)
	if rm == nil {
		return RoomDetail{}, domain.ErrRoomNotFound
	}
	return RoomDetail{
		ID:       rm.ID,
		Online:   rm.Online(),
		Messages: rm.Tail(r.opts.ReplayWindow),
	}, nil
}

// Members returns the sessions currently joined to a room.
func (r *Relay) Members(id string) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.rooms.Get(id)
	if rm == nil {
		return nil, domain.ErrRoomNotFound
	}
	ids := rm.Members()
	out := make([]domain.Session, 0, len(ids))
	for _, cid := range ids {
		if s, ok := r.conns.Get(cid); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
