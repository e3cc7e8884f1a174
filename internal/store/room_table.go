package store

import (
	"sort"
)

// RoomTable owns every Room. Rooms are created lazily and never deleted.
// Not safe for concurrent use; the relay serializes access.
type RoomTable struct {
	rooms  map[string]*Room
	retain int
}

// NewRoomTable keeps at most retain messages per room (0 = unbounded).
func NewRoomTable(retain int) *RoomTable {
	return &RoomTable{
		rooms:  make(map[string]*Room),
		retain: retain,
	}
}

func (t *RoomTable) GetOrCreate(id string) (room *Room, created bool) {
	if r, ok := t.rooms[id]; ok {
		return r, false
	}
	r := newRoom(id, t.retain)
	t.rooms[id] = r
	return r, true
}

// Get returns nil for unknown rooms.
func (t *RoomTable) Get(id string) *Room {
	return t.rooms[id]
}

func (t *RoomTable) RemoveMember(roomID, connID string) bool {
	r, ok := t.rooms[roomID]
	if !ok {
		return false
	}
	return r.Remove(connID)
}

func (t *RoomTable) Len() int { return len(t.rooms) }

// Page lists rooms ordered by id, starting strictly after the cursor.
func (t *RoomTable) Page(after string, limit int) ([]*Room, string, error) {
	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", err
	}

	ids := make([]string, 0, len(t.rooms))
	for id := range t.rooms {
		if cur != nil && id <= cur.ID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// limit+1: курсор отдаём, только если за страницей что-то есть
	more := limit > 0 && len(ids) > limit
	if more {
		ids = ids[:limit]
	}
	out := make([]*Room, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.rooms[id])
	}

	var next string
	if more {
		next, _ = EncodeCursor(Cursor{ID: out[len(out)-1].ID})
	}
	return out, next, nil
}
