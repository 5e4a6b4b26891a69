package session

import "sync"

// BrowserGroup tracks every session sharing one browser cookie value
// and how many of them currently hold an armed /meta/connect, so the
// broker can enforce maxSessionsPerBrowser and decide when to set the
// "multiple-clients" advice flag (spec §4.3/§6).
//
// maxSessionsPerBrowser sentinels: -1 means unlimited, 0 forbids
// holding any connect at all (Allow always reports false), matching the
// server option of the same name.
type BrowserGroup struct {
	mu       sync.Mutex
	id       string
	sessions map[string]*Session
	held     int // sessions currently holding an armed connect
}

func NewBrowserGroup(id string) *BrowserGroup {
	return &BrowserGroup{id: id, sessions: make(map[string]*Session)}
}

func (g *BrowserGroup) ID() string { return g.id }

// Allow reports whether one more session may hold an armed connect in
// this group given max (the maxSessionsPerBrowser option) — it counts
// concurrent suspended connects, not total registered sessions, so a
// browser with many handshaken-but-idle sessions doesn't starve the
// one that actually tries to hold.
func (g *BrowserGroup) Allow(max int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if max < 0 {
		return true
	}
	return g.held < max
}

func (g *BrowserGroup) Add(s *Session) {
	g.mu.Lock()
	g.sessions[s.ID()] = s
	g.mu.Unlock()
}

func (g *BrowserGroup) Remove(id string) {
	g.mu.Lock()
	delete(g.sessions, id)
	g.mu.Unlock()
}

func (g *BrowserGroup) Empty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions) == 0
}

func (g *BrowserGroup) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// HoldConnect/ReleaseConnect track how many sessions in this group
// currently have an armed long poll outstanding. MultipleClients
// reports whether more than one does. The broker sets
// advice.multiple-clients from Allow being false, not from this method.
func (g *BrowserGroup) HoldConnect() {
	g.mu.Lock()
	g.held++
	g.mu.Unlock()
}

func (g *BrowserGroup) ReleaseConnect() {
	g.mu.Lock()
	if g.held > 0 {
		g.held--
	}
	g.mu.Unlock()
}

func (g *BrowserGroup) MultipleClients() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held > 1
}

// BrowserGroups owns one BrowserGroup per cookie value.
type BrowserGroups struct {
	mu     sync.Mutex
	groups map[string]*BrowserGroup
}

func NewBrowserGroups() *BrowserGroups {
	return &BrowserGroups{groups: make(map[string]*BrowserGroup)}
}

// GetOrCreate returns the group for id, creating it if absent.
func (b *BrowserGroups) GetOrCreate(id string) *BrowserGroup {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.groups[id]
	if !ok {
		g = NewBrowserGroup(id)
		b.groups[id] = g
	}
	return g
}

// Prune removes the group for id if it is now empty, so BrowserGroups
// doesn't grow unboundedly as browsers come and go.
func (b *BrowserGroups) Prune(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.groups[id]; ok && g.Empty() {
		delete(b.groups, id)
	}
}
