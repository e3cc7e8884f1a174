package store

import (
	"sort"

	"github.com/cwrk-planet/room-relay/internal/domain"
)

// Room is a named broadcast group. Members hold connection ids only.
type Room struct {
	ID string

	members map[string]struct{}
	log     []domain.Message
	retain  int
}

func newRoom(id string, retain int) *Room {
	return &Room{
		ID:      id,
		members: make(map[string]struct{}),
		retain:  retain,
	}
}

// Add returns false if the connection was already a member.
func (r *Room) Add(connID string) bool {
	if _, ok := r.members[connID]; ok {
		return false
	}
	r.members[connID] = struct{}{}
	return true
}

// Remove tolerates an absent member.
func (r *Room) Remove(connID string) bool {
	if _, ok := r.members[connID]; !ok {
		return false
	}
	delete(r.members, connID)
	return true
}

func (r *Room) Has(connID string) bool {
	_, ok := r.members[connID]
	return ok
}

func (r *Room) Online() int { return len(r.members) }

// Members returns the member ids in a stable order.
func (r *Room) Members() []string {
	out := make([]string, 0, len(r.members))
	for id := range r.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Room) Append(m domain.Message) {
	r.log = append(r.log, m)
	if r.retain > 0 && len(r.log) > r.retain {
		r.log = r.log[len(r.log)-r.retain:]
	}
}

// Tail returns a copy of the last n messages in send order.
func (r *Room) Tail(n int) []domain.Message {
	if n <= 0 || n > len(r.log) {
		n = len(r.log)
	}
	out := make([]domain.Message, n)
	copy(out, r.log[len(r.log)-n:])
	return out
}
