package channel

import (
	"sync"

	"github.com/johnjansen/bayeux/message"
)

// Subscriber is the minimal surface Channel needs from a session: an
// identity to key the subscriber set by, and a delivery hook. The
// session package implements this; channel does not import session to
// avoid a import cycle (session subscribes to channels, channels notify
// sessions back).
type Subscriber interface {
	ID() string
	Deliver(sender Subscriber, msg *message.Message)
}

// ListenerEvent names the lifecycle events a Channel fires.
type ListenerEvent string

const (
	EventSubscribed   ListenerEvent = "subscribed"
	EventUnsubscribed ListenerEvent = "unsubscribed"
	EventMessage      ListenerEvent = "message"
)

// MessageListener is notified of a publish on a channel or one of its
// wildcard ancestors. Returning false vetoes the publish — no further
// listener in the ancestor-first walk runs, and no subscriber delivery
// happens.
type MessageListener func(ch *Channel, sender Subscriber, msg *message.Message) bool

// SubscriptionListener is notified when a subscriber (un)subscribes.
type SubscriptionListener func(ch *Channel, sub Subscriber)

// Channel holds the subscriber set and listener lists for one Bayeux
// channel name.
type Channel struct {
	name string
	kind Kind

	mu          sync.RWMutex
	subscribers map[string]Subscriber
	onMessage   []MessageListener
	onSubscribe []SubscriptionListener
	onUnsub     []SubscriptionListener
}

// New constructs a Channel for name. Kind is derived from the name.
func New(name string) *Channel {
	return &Channel{
		name:        name,
		kind:        ClassifyKind(name),
		subscribers: make(map[string]Subscriber),
	}
}

func (c *Channel) Name() string { return c.name }
func (c *Channel) Kind() Kind   { return c.kind }
func (c *Channel) IsMeta() bool { return c.kind == Meta }

// AddMessageListener registers a listener fired on publishes to this
// channel (used when walking the wildcard ancestor path).
func (c *Channel) AddMessageListener(l MessageListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = append(c.onMessage, l)
}

func (c *Channel) AddSubscribeListener(l SubscriptionListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSubscribe = append(c.onSubscribe, l)
}

func (c *Channel) AddUnsubscribeListener(l SubscriptionListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnsub = append(c.onUnsub, l)
}

// notifyMessage runs this channel's own message listeners (not its
// ancestors — the caller walks the ancestor path itself) against a
// stable snapshot, so a listener adding/removing listeners mid-walk
// cannot corrupt iteration.
func (c *Channel) notifyMessage(sender Subscriber, msg *message.Message) (continueChain bool) {
	c.mu.RLock()
	listeners := append([]MessageListener(nil), c.onMessage...)
	c.mu.RUnlock()
	for _, l := range listeners {
		if !l(c, sender, msg) {
			return false
		}
	}
	return true
}

// Subscribe adds sub to the subscriber set unless this is a meta
// channel, per spec §4.2 ("_subscribe is a no-op on meta channels").
// Callers (the broker) are responsible for the "not handshaken" check;
// Channel itself only enforces the meta-channel rule it fully owns.
func (c *Channel) Subscribe(sub Subscriber) {
	if c.kind == Meta {
		return
	}
	c.mu.Lock()
	c.subscribers[sub.ID()] = sub
	listeners := append([]SubscriptionListener(nil), c.onSubscribe...)
	c.mu.Unlock()
	for _, l := range listeners {
		l(c, sub)
	}
}

// Unsubscribe is idempotent: removing an absent subscriber is a no-op.
func (c *Channel) Unsubscribe(sub Subscriber) {
	c.mu.Lock()
	_, existed := c.subscribers[sub.ID()]
	if existed {
		delete(c.subscribers, sub.ID())
	}
	listeners := append([]SubscriptionListener(nil), c.onUnsub...)
	c.mu.Unlock()
	if !existed {
		return
	}
	for _, l := range listeners {
		l(c, sub)
	}
}

// HasSubscriber reports whether sub is currently subscribed.
func (c *Channel) HasSubscriber(sub Subscriber) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscribers[sub.ID()]
	return ok
}

// Subscribers returns a stable snapshot of the current subscriber set.
func (c *Channel) Subscribers() []Subscriber {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Subscriber, 0, len(c.subscribers))
	for _, s := range c.subscribers {
		out = append(out, s)
	}
	return out
}

// NotifyMessage runs this channel's own message listeners. Exported so
// a Registry can drive the ancestor-first walk across multiple Channel
// instances.
func (c *Channel) NotifyMessage(sender Subscriber, msg *message.Message) bool {
	return c.notifyMessage(sender, msg)
}

// DeliverToSubscribers fans msg out to every current subscriber, sender
// included, relying on each subscriber's own Deliver to decide whether
// and how to serialize and queue it.
func (c *Channel) DeliverToSubscribers(sender Subscriber, msg *message.Message) {
	for _, sub := range c.Subscribers() {
		sub.Deliver(sender, msg)
	}
}

// Sweepable reports whether this channel is eligible for removal: no
// subscribers, no listeners, and non-meta. Meta channels are never
// swept (spec §3 invariant).
func (c *Channel) Sweepable() bool {
	if c.kind == Meta {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers) == 0 && len(c.onMessage) == 0 &&
		len(c.onSubscribe) == 0 && len(c.onUnsub) == 0
}
