package broker

import (
	"time"

	"github.com/johnjansen/bayeux/longpoll"
	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

// SuspendConnect implements the suspension decision of spec §4.4 for
// one /meta/connect reply. onlyMessage reports whether this connect
// was the sole message in its request (the transport knows the batch
// shape, the broker doesn't). It returns true if the connect was
// armed — the caller must not complete the HTTP response itself in
// that case; onResolve fires exactly once when the waiter later
// resolves, carrying the reason and (for a preempted duplicate) the
// status code to answer with.
func (b *Broker) SuspendConnect(s *session.Session, reply *message.Message, onlyMessage bool, onResolve func(reason longpoll.Reason, code int)) bool {
	b.preemptExistingWaiter(s)

	group := b.browsers.GetOrCreate(s.BrowserID())
	if !group.Allow(b.cfg.MaxSessionsPerBrowser) {
		adv := reply.EnsureAdvice()
		adv.MultipleClients = true
		if b.cfg.MultiSessionInterval > 0 {
			adv.Reconnect = message.ReconnectRetry
			adv.Interval = int64Ptr(b.cfg.MultiSessionInterval)
		} else {
			reply.SetSuccessful(false)
			adv.Reconnect = message.ReconnectNone
		}
		return false
	}

	if !reply.IsSuccessful() || !onlyMessage {
		return false
	}
	if s.QueueLen() > 0 && s.BatchDepth() == 0 {
		return false
	}

	timeout := s.CalculateTimeout(b.cfg.Timeout)
	if timeout <= 0 {
		return false
	}

	group.HoldConnect()
	b.metrics.WaitersArmed(1)

	w := longpoll.Arm(time.Duration(timeout)*time.Millisecond, func(reason longpoll.Reason, code int) {
		s.DetachWaiter()
		group.ReleaseConnect()
		b.metrics.WaitersArmed(-1)
		b.waitersMu.Lock()
		delete(b.waiters, s.ID())
		b.waitersMu.Unlock()
		onResolve(reason, code)
	})

	s.AttachWaiter(w)
	b.waitersMu.Lock()
	b.waiters[s.ID()] = w
	b.waitersMu.Unlock()
	return true
}

// preemptExistingWaiter cancels a previously armed connect for s, if
// any, with the configured duplicate-connect status code (spec §4.4
// resume path 3).
func (b *Broker) preemptExistingWaiter(s *session.Session) {
	existing := s.CurrentWaiter()
	if existing == nil {
		return
	}
	w, ok := existing.(*longpoll.Waiter)
	if !ok {
		return
	}
	w.CancelDuplicate(b.cfg.DuplicateMetaConnectHTTPResponseCode)
}
