// Package broker implements the Broker: the aggregate root owning the
// channel and session registries, the message pipeline, the five meta
// handlers and the periodic sweeper described in spec.md §4.1/§4.6.
package broker

import (
	"sync"
	"time"

	"github.com/johnjansen/bayeux/channel"
	"github.com/johnjansen/bayeux/longpoll"
	"github.com/johnjansen/bayeux/session"
)

// Broker is the natural aggregate root: there is no process-wide
// state, every extension and listener is handed the broker explicitly.
type Broker struct {
	cfg Config

	mu         sync.RWMutex
	channels   *channel.Registry
	sessions   *session.Registry
	browsers   *session.BrowserGroups
	policy     Policy
	extensions []Extension

	eventsMu         sync.RWMutex
	nextListenerID   ListenerHandle
	onSessionAdded   []sessionListenerEntry
	onSessionRemoved []sessionRemovedListenerEntry
	onChannelAdded   []channelListenerEntry
	onChannelRemoved []channelListenerEntry
	onSubscribed     []subscriptionListenerEntry
	onUnsubscribed   []subscriptionListenerEntry

	waitersMu sync.Mutex
	waiters   map[string]*longpoll.Waiter

	logger  Logger
	metrics Metrics

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// Option configures a Broker at construction time.
type Option func(*Broker)

func WithPolicy(p Policy) Option { return func(b *Broker) { b.policy = p } }
func WithLogger(l Logger) Option { return func(b *Broker) { b.logger = l } }
func WithMetrics(m Metrics) Option { return func(b *Broker) { b.metrics = m } }

// New constructs a Broker with the five meta channels already present
// and starts its sweeper goroutine.
func New(cfg Config, opts ...Option) *Broker {
	b := &Broker{
		cfg:       cfg,
		channels:  channel.NewRegistry(),
		sessions:  session.NewRegistry(),
		browsers:  session.NewBrowserGroups(),
		waiters:   make(map[string]*longpoll.Waiter),
		logger:    nopLogger{},
		metrics:   nopMetrics{},
		sweepStop: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	for _, ch := range b.channels.All() {
		b.wireChannel(ch)
	}
	b.channels.AddAddedListener(b.fireChannelAdded)
	b.channels.AddAddedListener(func(*channel.Channel) { b.metrics.ChannelsActive(1) })
	b.channels.AddRemovedListener(b.fireChannelRemoved)
	b.channels.AddRemovedListener(func(*channel.Channel) { b.metrics.ChannelsActive(-1) })
	b.sessions.AddAddedListener(b.fireSessionAdded)
	b.sessions.AddAddedListener(func(*session.Session) { b.metrics.SessionsActive(1) })
	b.sessions.AddAddedListener(func(s *session.Session) { b.browsers.GetOrCreate(s.BrowserID()).Add(s) })
	b.sessions.AddRemovedListener(b.fireSessionRemoved)
	b.sessions.AddRemovedListener(func(*session.Session, bool) { b.metrics.SessionsActive(-1) })
	b.sessions.AddRemovedListener(b.cleanupSessionState)

	go b.sweepLoop()
	return b
}

// Close stops the sweeper. It does not forcibly resume existing
// waiters — the owning HTTP server closing connections is what
// resolves those (spec §5: "Broker close() stops the sweeper but does
// not forcibly resume existing waiters").
func (b *Broker) Close() {
	close(b.sweepStop)
	<-b.sweepDone
}

// GetChannel/CreateChannel/GetSession are the registry-access half of
// the Broker's public contract (spec §4.1).
func (b *Broker) GetChannel(name string) (*channel.Channel, bool) { return b.channels.Get(name) }

func (b *Broker) CreateChannel(name string) *channel.Channel {
	ch, _ := b.channels.GetOrCreate(name)
	return ch
}

func (b *Broker) GetSession(id string) (*session.Session, bool) { return b.sessions.Get(id) }

// NewSession creates an unregistered session for browserID, wiring its
// flush hook so a later enqueue resumes any armed waiter. It is NOT
// added to the session registry — only a successful /meta/handshake
// does that (spec §3: "added to the session registry only on
// handshake success").
func (b *Broker) NewSession(browserID string) (*session.Session, error) {
	s, err := session.New(browserID)
	if err != nil {
		return nil, err
	}
	s.SetFlushHook(b.flushSession)
	return s, nil
}

// flushSession is wired into every session at construction time; it is
// Session's only notion of "a message became available", and resumes
// whatever LongPollWaiter is currently armed for this session, if any.
func (b *Broker) flushSession(s *session.Session) {
	b.waitersMu.Lock()
	w := b.waiters[s.ID()]
	b.waitersMu.Unlock()
	if w != nil {
		w.Resume()
	}
}

// cleanupSessionState drops the broker-side bookkeeping (the waiter
// lookup and browser-group membership) that session.Session itself has
// no way to clean up, since it holds neither.
func (b *Broker) cleanupSessionState(s *session.Session, timedOut bool) {
	b.waitersMu.Lock()
	delete(b.waiters, s.ID())
	b.waitersMu.Unlock()

	group := b.browsers.GetOrCreate(s.BrowserID())
	group.Remove(s.ID())
	b.browsers.Prune(s.BrowserID())
}

func (b *Broker) sweepLoop() {
	defer close(b.sweepDone)
	ticker := time.NewTicker(b.cfg.SweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-b.sweepStop:
			return
		case <-ticker.C:
			b.sweep()
		}
	}
}

// sweep runs one tick of the periodic GC: expired sessions are
// cancelled and removed with timeout=true, then empty non-meta
// channels are dropped.
func (b *Broker) sweep() {
	now := time.Now().UnixMilli()
	expired := b.sessions.Sweep(now)
	removedChannels := b.channels.Sweep()
	b.metrics.SweepRun(expired, removedChannels)
	if expired > 0 {
		b.logger.Debugf("swept %d expired session(s)", expired)
	}
	if removedChannels > 0 {
		b.logger.Debugf("swept %d empty channel(s)", removedChannels)
	}
}
