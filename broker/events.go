package broker

import (
	"github.com/johnjansen/bayeux/channel"
	"github.com/johnjansen/bayeux/session"
)

// Event names one of the Broker's lifecycle events, per spec §4.1's
// `addListener / removeListener / listeners(event)` contract.
type Event string

const (
	EventSessionAdded   Event = "sessionAdded"
	EventSessionRemoved Event = "sessionRemoved"
	EventChannelAdded   Event = "channelAdded"
	EventChannelRemoved Event = "channelRemoved"
	EventSubscribed     Event = "subscribed"
	EventUnsubscribed   Event = "unsubscribed"
)

// ListenerHandle identifies one Add*Listener registration so it can
// later be removed; it is meaningless outside the Broker that issued it.
type ListenerHandle uint64

// SessionListener is notified on sessionAdded.
type SessionListener func(s *session.Session)

// SessionRemovedListener is notified on sessionRemoved.
type SessionRemovedListener func(s *session.Session, timedOut bool)

// ChannelListener is notified on channelAdded/channelRemoved.
type ChannelListener func(ch *channel.Channel)

// SubscriptionListener is notified on subscribed/unsubscribed.
type SubscriptionListener func(s *session.Session, ch *channel.Channel)

type sessionListenerEntry struct {
	id ListenerHandle
	fn SessionListener
}

type sessionRemovedListenerEntry struct {
	id ListenerHandle
	fn SessionRemovedListener
}

type channelListenerEntry struct {
	id ListenerHandle
	fn ChannelListener
}

type subscriptionListenerEntry struct {
	id ListenerHandle
	fn SubscriptionListener
}

func (b *Broker) nextHandle() ListenerHandle {
	b.nextListenerID++
	return b.nextListenerID
}

func (b *Broker) AddSessionAddedListener(l SessionListener) ListenerHandle {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	id := b.nextHandle()
	b.onSessionAdded = append(b.onSessionAdded, sessionListenerEntry{id, l})
	return id
}

// RemoveSessionAddedListener unregisters the listener handle returned by
// AddSessionAddedListener. A no-op if handle is unknown.
func (b *Broker) RemoveSessionAddedListener(handle ListenerHandle) {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	for i, e := range b.onSessionAdded {
		if e.id == handle {
			b.onSessionAdded = append(b.onSessionAdded[:i], b.onSessionAdded[i+1:]...)
			return
		}
	}
}

func (b *Broker) AddSessionRemovedListener(l SessionRemovedListener) ListenerHandle {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	id := b.nextHandle()
	b.onSessionRemoved = append(b.onSessionRemoved, sessionRemovedListenerEntry{id, l})
	return id
}

// RemoveSessionRemovedListener unregisters the listener handle returned
// by AddSessionRemovedListener. A no-op if handle is unknown.
func (b *Broker) RemoveSessionRemovedListener(handle ListenerHandle) {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	for i, e := range b.onSessionRemoved {
		if e.id == handle {
			b.onSessionRemoved = append(b.onSessionRemoved[:i], b.onSessionRemoved[i+1:]...)
			return
		}
	}
}

func (b *Broker) AddChannelAddedListener(l ChannelListener) ListenerHandle {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	id := b.nextHandle()
	b.onChannelAdded = append(b.onChannelAdded, channelListenerEntry{id, l})
	return id
}

// RemoveChannelAddedListener unregisters the listener handle returned by
// AddChannelAddedListener. A no-op if handle is unknown.
func (b *Broker) RemoveChannelAddedListener(handle ListenerHandle) {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	for i, e := range b.onChannelAdded {
		if e.id == handle {
			b.onChannelAdded = append(b.onChannelAdded[:i], b.onChannelAdded[i+1:]...)
			return
		}
	}
}

func (b *Broker) AddChannelRemovedListener(l ChannelListener) ListenerHandle {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	id := b.nextHandle()
	b.onChannelRemoved = append(b.onChannelRemoved, channelListenerEntry{id, l})
	return id
}

// RemoveChannelRemovedListener unregisters the listener handle returned
// by AddChannelRemovedListener. A no-op if handle is unknown.
func (b *Broker) RemoveChannelRemovedListener(handle ListenerHandle) {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	for i, e := range b.onChannelRemoved {
		if e.id == handle {
			b.onChannelRemoved = append(b.onChannelRemoved[:i], b.onChannelRemoved[i+1:]...)
			return
		}
	}
}

func (b *Broker) AddSubscribedListener(l SubscriptionListener) ListenerHandle {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	id := b.nextHandle()
	b.onSubscribed = append(b.onSubscribed, subscriptionListenerEntry{id, l})
	return id
}

// RemoveSubscribedListener unregisters the listener handle returned by
// AddSubscribedListener. A no-op if handle is unknown.
func (b *Broker) RemoveSubscribedListener(handle ListenerHandle) {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	for i, e := range b.onSubscribed {
		if e.id == handle {
			b.onSubscribed = append(b.onSubscribed[:i], b.onSubscribed[i+1:]...)
			return
		}
	}
}

func (b *Broker) AddUnsubscribedListener(l SubscriptionListener) ListenerHandle {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	id := b.nextHandle()
	b.onUnsubscribed = append(b.onUnsubscribed, subscriptionListenerEntry{id, l})
	return id
}

// RemoveUnsubscribedListener unregisters the listener handle returned by
// AddUnsubscribedListener. A no-op if handle is unknown.
func (b *Broker) RemoveUnsubscribedListener(handle ListenerHandle) {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	for i, e := range b.onUnsubscribed {
		if e.id == handle {
			b.onUnsubscribed = append(b.onUnsubscribed[:i], b.onUnsubscribed[i+1:]...)
			return
		}
	}
}

// Listeners reports how many listeners are currently registered for
// event, the introspection half of spec §4.1's `listeners(event)`.
func (b *Broker) Listeners(event Event) int {
	b.eventsMu.RLock()
	defer b.eventsMu.RUnlock()
	switch event {
	case EventSessionAdded:
		return len(b.onSessionAdded)
	case EventSessionRemoved:
		return len(b.onSessionRemoved)
	case EventChannelAdded:
		return len(b.onChannelAdded)
	case EventChannelRemoved:
		return len(b.onChannelRemoved)
	case EventSubscribed:
		return len(b.onSubscribed)
	case EventUnsubscribed:
		return len(b.onUnsubscribed)
	default:
		return 0
	}
}

func (b *Broker) fireSessionAdded(s *session.Session) {
	b.eventsMu.RLock()
	entries := append([]sessionListenerEntry(nil), b.onSessionAdded...)
	b.eventsMu.RUnlock()
	for _, e := range entries {
		e.fn(s)
	}
}

func (b *Broker) fireSessionRemoved(s *session.Session, timedOut bool) {
	b.eventsMu.RLock()
	entries := append([]sessionRemovedListenerEntry(nil), b.onSessionRemoved...)
	b.eventsMu.RUnlock()
	for _, e := range entries {
		e.fn(s, timedOut)
	}
}

func (b *Broker) fireChannelAdded(ch *channel.Channel) {
	b.eventsMu.RLock()
	entries := append([]channelListenerEntry(nil), b.onChannelAdded...)
	b.eventsMu.RUnlock()
	for _, e := range entries {
		e.fn(ch)
	}
	b.wireChannel(ch)
}

func (b *Broker) fireChannelRemoved(ch *channel.Channel) {
	b.eventsMu.RLock()
	entries := append([]channelListenerEntry(nil), b.onChannelRemoved...)
	b.eventsMu.RUnlock()
	for _, e := range entries {
		e.fn(ch)
	}
}

func (b *Broker) fireSubscribed(s *session.Session, ch *channel.Channel) {
	b.eventsMu.RLock()
	entries := append([]subscriptionListenerEntry(nil), b.onSubscribed...)
	b.eventsMu.RUnlock()
	for _, e := range entries {
		e.fn(s, ch)
	}
}

func (b *Broker) fireUnsubscribed(s *session.Session, ch *channel.Channel) {
	b.eventsMu.RLock()
	entries := append([]subscriptionListenerEntry(nil), b.onUnsubscribed...)
	b.eventsMu.RUnlock()
	for _, e := range entries {
		e.fn(s, ch)
	}
}

// wireChannel attaches the subscribe/unsubscribe bridge that turns a
// channel.Channel's Subscriber-typed callbacks into broker-level
// SubscriptionListener calls carrying a concrete *session.Session.
// Non-session subscribers (there are none in this implementation, but
// the interface allows for them) are silently skipped.
func (b *Broker) wireChannel(ch *channel.Channel) {
	ch.AddSubscribeListener(func(c *channel.Channel, sub channel.Subscriber) {
		if s, ok := sub.(*session.Session); ok {
			b.fireSubscribed(s, c)
		}
	})
	ch.AddUnsubscribeListener(func(c *channel.Channel, sub channel.Subscriber) {
		if s, ok := sub.(*session.Session); ok {
			b.fireUnsubscribed(s, c)
		}
	})
}
