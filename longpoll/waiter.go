// Package longpoll implements the suspend/resume state machine behind a
// held /meta/connect: LongPollWaiter arms a single-shot timer and
// guarantees its completion callback runs exactly once, regardless of
// whether it is resumed by a publish, a timeout, a duplicate connect,
// or a transport-level cancellation.
package longpoll

import (
	"sync"
	"time"
)

// Reason identifies why a Waiter resolved, so the transport can choose
// the right response (a normal reply, a duplicate-connect error, or no
// response at all).
type Reason int

const (
	ReasonResumed Reason = iota
	ReasonExpired
	ReasonDuplicate
	ReasonCancelled
)

// Waiter holds one suspended /meta/connect open until Resume, Expire,
// CancelDuplicate or Cancel fires it — whichever happens first wins,
// and every later call is a no-op. This exactly-once guarantee is what
// lets the broker call Resume() from an arbitrary publishing goroutine
// without racing the waiter's own timeout.
type Waiter struct {
	mu        sync.Mutex
	done      bool
	timer     *time.Timer
	onResolve func(Reason, int)
}

// Arm starts a waiter that calls onResolve exactly once, either when
// Resume/Expire/CancelDuplicate/Cancel is called or when d elapses
// (reported as ReasonExpired). The int argument to onResolve is only
// meaningful for ReasonDuplicate (the HTTP status code to answer with);
// it is 0 otherwise.
func Arm(d time.Duration, onResolve func(Reason, int)) *Waiter {
	w := &Waiter{onResolve: onResolve}
	w.timer = time.AfterFunc(d, func() {
		w.resolve(ReasonExpired, 0)
	})
	return w
}

func (w *Waiter) resolve(reason Reason, code int) {
	w.mu.Lock()
	if w.done {
		w.mu.Unlock()
		return
	}
	w.done = true
	timer := w.timer
	w.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if w.onResolve != nil {
		w.onResolve(reason, code)
	}
}

// Resume wakes the waiter because a message became available for
// delivery.
func (w *Waiter) Resume() { w.resolve(ReasonResumed, 0) }

// Expire is exposed so tests can force the timeout path deterministically
// instead of waiting out the real timer.
func (w *Waiter) Expire() { w.resolve(ReasonExpired, 0) }

// CancelDuplicate wakes the waiter because the same session opened a
// second /meta/connect while this one was still armed (spec §4.4:
// "duplicate connect preemption"). code is the configured
// duplicateMetaConnectHttpResponseCode to answer the preempted request
// with.
func (w *Waiter) CancelDuplicate(code int) { w.resolve(ReasonDuplicate, code) }

// Cancel implements session.Waiter: it wakes the waiter because the
// session was removed or the underlying transport connection failed.
func (w *Waiter) Cancel() { w.resolve(ReasonCancelled, 0) }

// Resolved reports whether the waiter has already fired.
func (w *Waiter) Resolved() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}
