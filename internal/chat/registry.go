package chat

import "sync"

// Registry is the shared set of live connections, keyed by session ID.
// Mutation is serialized by the mutex; delivery always iterates a
// Snapshot so a slow send can never block registration or other sends.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Conn),
	}
}

// Add inserts the connection. A second Add for the same session ID should
// not happen under correct transport semantics; the stale entry is
// replaced and ErrDuplicateConnection returned so the caller can log it.
func (r *Registry) Add(c *Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, dup := r.conns[c.ID]
	r.conns[c.ID] = c
	if dup {
		return ErrDuplicateConnection
	}
	return nil
}

// Remove deletes the connection and reports whether it was present.
// Removing an absent connection is a no-op, so duplicate close signals
// are harmless.
func (r *Registry) Remove(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c.ID]; !ok {
		return false
	}
	delete(r.conns, c.ID)
	return true
}

// Snapshot returns a point-in-time copy of the live connections for
// iteration outside the lock.
func (r *Registry) Snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
