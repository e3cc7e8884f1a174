package store

import "github.com/cwrk-planet/room-relay/internal/domain"

// Sink receives events addressed to one connection. Send must not block.
type Sink interface {
	Send(ev domain.Event) error
}

type entry struct {
	session domain.Session
	sink    Sink
}

// Registry owns connection sessions. Not safe for concurrent use.
type Registry struct {
	conns map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*entry)}
}

func (r *Registry) Put(s domain.Session, sink Sink) {
	r.conns[s.ConnID] = &entry{session: s, sink: sink}
}

func (r *Registry) Get(connID string) (domain.Session, bool) {
	e, ok := r.conns[connID]
	if !ok {
		return domain.Session{}, false
	}
	return e.session, true
}

// Set overwrites the session of a registered connection.
func (r *Registry) Set(s domain.Session) bool {
	e, ok := r.conns[s.ConnID]
	if !ok {
		return false
	}
	e.session = s
	return true
}

func (r *Registry) Sink(connID string) Sink {
	if e, ok := r.conns[connID]; ok {
		return e.sink
	}
	return nil
}

func (r *Registry) Remove(connID string) (domain.Session, bool) {
	e, ok := r.conns[connID]
	if !ok {
		return domain.Session{}, false
	}
	delete(r.conns, connID)
	return e.session, true
}

func (r *Registry) Len() int { return len(r.conns) }

// Sinks returns every registered sink keyed by connection id.
func (r *Registry) Sinks() map[string]Sink {
	out := make(map[string]Sink, len(r.conns))
	for id, e := range r.conns {
		out[id] = e.sink
	}
	return out
}
