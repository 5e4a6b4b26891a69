package session

import "sync"

// AddedListener is notified once a session completes handshake
// successfully and is registered; unlike channel creation, a Session is
// deliberately NOT added to the Registry until handshake succeeds (spec
// §4.3), so a failed or abandoned handshake never leaks a registry
// entry.
type AddedListener func(s *Session)

// Registry holds every handshaken session, keyed by session id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	listenersMu sync.RWMutex
	onAdded     []AddedListener
	onRemoved   []RemovedListener
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) AddAddedListener(l AddedListener) {
	r.listenersMu.Lock()
	r.onAdded = append(r.onAdded, l)
	r.listenersMu.Unlock()
}

func (r *Registry) AddRemovedListener(l RemovedListener) {
	r.listenersMu.Lock()
	r.onRemoved = append(r.onRemoved, l)
	r.listenersMu.Unlock()
}

// Add registers s and fires "sessionAdded" listeners. Called by the
// broker only after /meta/handshake succeeds.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	r.listenersMu.RLock()
	listeners := append([]AddedListener(nil), r.onAdded...)
	r.listenersMu.RUnlock()
	for _, l := range listeners {
		l(s)
	}
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove tears s down, removes it from the registry and fires
// "sessionRemoved" listeners. A no-op if id is not currently known.
func (r *Registry) Remove(id string, timedOut bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	s.Remove(timedOut)

	r.listenersMu.RLock()
	listeners := append([]RemovedListener(nil), r.onRemoved...)
	r.listenersMu.RUnlock()
	for _, l := range listeners {
		l(s, timedOut)
	}
}

// All returns a stable snapshot of every registered session.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Sweep removes and tears down every session whose expireTime has
// passed as of nowMillis. Returns the number removed.
func (r *Registry) Sweep(nowMillis int64) int {
	r.mu.RLock()
	var expired []*Session
	for _, s := range r.sessions {
		if s.Expired(nowMillis) {
			expired = append(expired, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range expired {
		r.Remove(s.ID(), true)
	}
	return len(expired)
}
