package channel

import (
	"sync"

	"github.com/johnjansen/bayeux/message"
)

// metaNames are the five built-in control channels that exist for the
// lifetime of the Registry and are never swept.
var metaNames = []string{
	"/meta/handshake",
	"/meta/connect",
	"/meta/subscribe",
	"/meta/unsubscribe",
	"/meta/disconnect",
}

// AddedListener is notified when a new Channel is created.
type AddedListener func(ch *Channel)

// RemovedListener is notified when a Channel is swept.
type RemovedListener func(ch *Channel)

// Registry owns every known Channel, keyed by name, and the wildcard
// walk used to notify listeners/subscribers on publish.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel

	listenersMu sync.RWMutex
	onAdded     []AddedListener
	onRemoved   []RemovedListener
}

// NewRegistry creates a Registry with the five meta channels already
// present, per spec §3 ("the five meta channels exist from Broker
// initialization").
func NewRegistry() *Registry {
	r := &Registry{channels: make(map[string]*Channel)}
	for _, name := range metaNames {
		r.channels[name] = New(name)
	}
	return r
}

func (r *Registry) AddAddedListener(l AddedListener)     { r.listenersMu.Lock(); r.onAdded = append(r.onAdded, l); r.listenersMu.Unlock() }
func (r *Registry) AddRemovedListener(l RemovedListener) { r.listenersMu.Lock(); r.onRemoved = append(r.onRemoved, l); r.listenersMu.Unlock() }

// Get returns the channel for name if it already exists.
func (r *Registry) Get(name string) (*Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	return ch, ok
}

// GetOrCreate returns the channel for name, creating and firing
// "channelAdded" if it did not already exist.
func (r *Registry) GetOrCreate(name string) (ch *Channel, created bool) {
	r.mu.Lock()
	existing, ok := r.channels[name]
	if ok {
		r.mu.Unlock()
		return existing, false
	}
	ch = New(name)
	r.channels[name] = ch
	r.mu.Unlock()

	r.listenersMu.RLock()
	listeners := append([]AddedListener(nil), r.onAdded...)
	r.listenersMu.RUnlock()
	for _, l := range listeners {
		l(ch)
	}
	return ch, true
}

// All returns a stable snapshot of every known channel.
func (r *Registry) All() []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, ch)
	}
	return out
}

// Sweep removes every channel currently eligible for removal (non-meta,
// no subscribers, no listeners). Returns the number removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	var removed []*Channel
	for name, ch := range r.channels {
		if ch.Sweepable() {
			delete(r.channels, name)
			removed = append(removed, ch)
		}
	}
	r.mu.Unlock()

	if len(removed) == 0 {
		return 0
	}
	r.listenersMu.RLock()
	listeners := append([]RemovedListener(nil), r.onRemoved...)
	r.listenersMu.RUnlock()
	for _, ch := range removed {
		for _, l := range listeners {
			l(ch)
		}
	}
	return len(removed)
}

// NotifyMessage walks the ancestor-first notification path for name
// (per spec §4.1: "/**", "/a/**", ..., name itself) and runs each
// existing channel's message listeners in order, stopping at the first
// veto. Channels on the path that don't exist yet are simply skipped —
// there is nothing to notify.
func (r *Registry) NotifyMessage(name string, sender Subscriber, msg *message.Message) bool {
	for _, candidate := range NotificationPath(name) {
		ch, ok := r.Get(candidate)
		if !ok {
			continue
		}
		if !ch.NotifyMessage(sender, msg) {
			return false
		}
	}
	return true
}
