package storage_session

import (
	"sync"

	"github.com/andrewjfei/klick-server/internal/model"
)

// Registry maps live connections to their sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[model.ConnID]model.Session
}

func New() *Registry {
	return &Registry{
		sessions: make(map[model.ConnID]model.Session),
	}
}

// Put creates or overwrites the session for connID with no name.
// The replaced session, if any, is returned.
func (r *Registry) Put(connID model.ConnID, code model.RoomCode) (model.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, replaced := r.sessions[connID]
	r.sessions[connID] = model.Session{
		ConnID:   connID,
		RoomCode: code,
	}
	return prev, replaced
}

func (r *Registry) Get(connID model.ConnID) (model.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connID]
	return s, ok
}

// SetName overwrites the display name, repeated calls included.
func (r *Registry) SetName(connID model.ConnID, name string) (model.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return model.Session{}, false
	}
	s.Name = &name
	r.sessions[connID] = s
	return s, true
}

// Remove deletes the session. Only the first call for a connection reports ok.
func (r *Registry) Remove(connID model.ConnID) (model.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if ok {
		delete(r.sessions, connID)
	}
	return s, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
