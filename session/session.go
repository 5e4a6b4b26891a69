// Package session implements per-client Bayeux session state: the
// handshake flag, outbound queue, subscriptions, batching depth and
// expiration timer described in spec.md §3/§4.3.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/johnjansen/bayeux/channel"
	"github.com/johnjansen/bayeux/message"
)

// Waiter is the minimal surface Session needs from a suspended
// /meta/connect. The concrete implementation lives in package longpoll;
// Session only ever needs to cancel it, so that's all this interface
// asks for — this keeps session free of any dependency on longpoll's
// timer/HTTP-completion machinery.
type Waiter interface {
	// Cancel aborts the waiter because of session removal or a
	// transport-level failure. A no-op if the waiter already resolved.
	Cancel()
}

// IncomingHook is the optional interface a session-level extension
// implements to inspect/veto inbound messages before they reach the
// broker's canonical handler.
type IncomingHook interface {
	Incoming(s *Session, m *message.Message) (cont bool, err error)
}

// OutgoingHook is the optional interface a session-level extension
// implements to rewrite/veto outbound messages before they are queued.
type OutgoingHook interface {
	Outgoing(sender, receiver *Session, m *message.Message) (cont bool, err error)
}

// Extension is any session-scoped extension; it need implement neither,
// either, or both of IncomingHook/OutgoingHook (checked via assertion).
type Extension interface{}

// Session is one client's persistent Bayeux state across requests.
type Session struct {
	id string

	mu                      sync.Mutex
	handshaken              bool
	queue                   []*message.Message
	subscriptions           map[string]*channel.Channel
	extensions              []Extension
	batchDepth              int
	clientTimeout           int64 // ms, -1 == use server default
	clientInterval          int64 // ms, -1 == use server default
	scheduleTime            int64 // ms monotonic-ish (wall clock ms)
	expireTime              int64 // ms; 0 == not subject to sweep
	waiter                  Waiter
	browserID               string
	metaConnectDeliveryOnly bool
	onFlush                 func(*Session)
}

// SetFlushHook wires the broker's "a message became available, resume
// any waiter" behavior into this session without session importing
// broker or longpoll. Called once at session construction time.
func (s *Session) SetFlushHook(hook func(*Session)) {
	s.mu.Lock()
	s.onFlush = hook
	s.mu.Unlock()
}

// New creates an unregistered Session with a fresh 40-hex-char id drawn
// from 20 cryptographically random bytes, per spec §3.
func New(browserID string) (*Session, error) {
	id, err := generateID()
	if err != nil {
		return nil, err
	}
	return &Session{
		id:             id,
		subscriptions:  make(map[string]*channel.Channel),
		clientTimeout:  -1,
		clientInterval: -1,
		browserID:      browserID,
	}, nil
}

func generateID() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) BrowserID() string { return s.browserID }

// Handshaken reports whether /meta/handshake has succeeded for this
// session and it has not since been removed.
func (s *Session) Handshaken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshaken
}

func (s *Session) MarkHandshaken() {
	s.mu.Lock()
	s.handshaken = true
	s.mu.Unlock()
}

// AddExtension appends a session-scoped extension. Extensions run in
// registration order on the incoming path and in reverse order on the
// outgoing/reply path, per spec §4.1 step 9.
func (s *Session) AddExtension(ext Extension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extensions = append(s.extensions, ext)
}

// Extensions returns a snapshot of registered extensions in
// registration order.
func (s *Session) Extensions() []Extension {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Extension(nil), s.extensions...)
}

// SetMetaConnectDeliveryOnly is set by the broker when a handshake
// negotiates the ack extension; the transport then drains the queue
// only into responses that carry a /meta/connect (spec §4.7).
func (s *Session) SetMetaConnectDeliveryOnly(v bool) {
	s.mu.Lock()
	s.metaConnectDeliveryOnly = v
	s.mu.Unlock()
}

func (s *Session) MetaConnectDeliveryOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metaConnectDeliveryOnly
}

// SetClientAdvice records the client-advertised timeout/interval from a
// /meta/connect's advice field; -1 means "use server default".
func (s *Session) SetClientAdvice(timeout, interval int64) {
	s.mu.Lock()
	s.clientTimeout = timeout
	s.clientInterval = interval
	s.mu.Unlock()
}

// CalculateTimeout returns the client-advertised timeout if it was set
// (>= 0), else serverDefault. Same logic applies to interval via
// CalculateInterval. Spec §4.3.
func (s *Session) CalculateTimeout(serverDefault int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clientTimeout >= 0 {
		return s.clientTimeout
	}
	return serverDefault
}

func (s *Session) CalculateInterval(serverDefault int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clientInterval >= 0 {
		return s.clientInterval
	}
	return serverDefault
}

// Subscribe adds ch to this session's subscription set. The channel's
// own Subscribe decides whether the subscription actually takes (it is
// a no-op for meta channels).
func (s *Session) Subscribe(ch *channel.Channel) {
	ch.Subscribe(s)
	s.mu.Lock()
	s.subscriptions[ch.Name()] = ch
	s.mu.Unlock()
}

// Unsubscribe removes ch from this session's subscription set.
func (s *Session) Unsubscribe(ch *channel.Channel) {
	ch.Unsubscribe(s)
	s.mu.Lock()
	delete(s.subscriptions, ch.Name())
	s.mu.Unlock()
}

// Subscriptions returns a snapshot of currently subscribed channels.
func (s *Session) Subscriptions() []*channel.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*channel.Channel, 0, len(s.subscriptions))
	for _, ch := range s.subscriptions {
		out = append(out, ch)
	}
	return out
}

// AttachWaiter records the LongPollWaiter currently holding this
// session's in-flight /meta/connect.
func (s *Session) AttachWaiter(w Waiter) {
	s.mu.Lock()
	s.waiter = w
	s.mu.Unlock()
}

// DetachWaiter clears the waiter pointer; called by the waiter itself
// at the moment it resolves, so a later duplicate /meta/connect doesn't
// try to cancel a waiter that already completed.
func (s *Session) DetachWaiter() {
	s.mu.Lock()
	s.waiter = nil
	s.mu.Unlock()
}

// CurrentWaiter returns the currently attached waiter, or nil.
func (s *Session) CurrentWaiter() Waiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiter
}

// Batch runs fn with the session's flush suppressed, flushing once on
// exit regardless of whether fn panics — spec §4.3's "Batch(fn) ...
// throws → still flushes the k messages on batch exit" round-trip law.
func (s *Session) Batch(fn func()) {
	s.mu.Lock()
	s.batchDepth++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.batchDepth--
		depth := s.batchDepth
		s.mu.Unlock()
		if depth == 0 {
			s.flush()
		}
	}()

	fn()
}

// BatchDepth reports the current batching depth (0 == not batching).
func (s *Session) BatchDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchDepth
}

// IncBatch/DecBatch let the transport hold a batch open across an
// entire multi-message request (spec §4.5 step 3) without the
// panic-safety wrapper Batch provides. The transport calls DecBatch
// directly after the request's messages are processed, not from a
// defer, so a panic in between leaves the depth raised.
func (s *Session) IncBatch() {
	s.mu.Lock()
	s.batchDepth++
	s.mu.Unlock()
}

func (s *Session) DecBatch() {
	s.mu.Lock()
	s.batchDepth--
	depth := s.batchDepth
	s.mu.Unlock()
	if depth == 0 {
		s.flush()
	}
}

// flush calls the hook installed by SetFlushHook, and does nothing if
// none is set; Session itself has no notion of "delivering to a
// waiter" — that coupling is
// wired by the broker via SetFlushHook to avoid an import cycle with
// package longpoll/broker.
func (s *Session) flush() {
	s.mu.Lock()
	hook := s.onFlush
	s.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}
