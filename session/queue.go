package session

import (
	"log"

	"github.com/johnjansen/bayeux/channel"
	"github.com/johnjansen/bayeux/extension"
	"github.com/johnjansen/bayeux/message"
)

// Deliver implements channel.Subscriber. It is the receiver-side half
// of spec §4.3's "_deliver": it runs the sender's session outgoing
// extensions and then this session's own outgoing extensions, and only
// the receiver's pass actually serializes and queues the message.
//
// Per spec §9's open question, the two-pass behavior (sender's chain
// running but not being the one that queues) is preserved deliberately
// rather than "fixed" — it is the hook future extensions can use to
// filter what a sender is allowed to fan out, even though today no
// shipped extension uses the sender-side pass for anything but its
// side effects.
func (s *Session) Deliver(sender channel.Subscriber, msg *message.Message) {
	senderSession, _ := sender.(*Session)

	if senderSession != nil {
		if cont, err := senderSession.runOutgoing(senderSession, s, msg); err != nil {
			log.Printf("bayeux: session outgoing extension error (sender %s): %v", senderSession.id, err)
		} else if !cont {
			return
		}
	}

	cont, err := s.runOutgoing(senderSession, s, msg)
	if err != nil {
		log.Printf("bayeux: session outgoing extension error (receiver %s): %v", s.id, err)
		return
	}
	if !cont {
		return
	}

	if _, err := msg.Serialize(); err != nil {
		log.Printf("bayeux: failed to serialize message for session %s: %v", s.id, err)
		return
	}

	s.mu.Lock()
	s.queue = append(s.queue, msg)
	depth := s.batchDepth
	s.mu.Unlock()

	if depth == 0 {
		s.flush()
	}
}

// runOutgoing folds this session's outgoing hooks (in reverse
// registration order, per spec §4.1 step 9) over msg.
func (s *Session) runOutgoing(sender, receiver *Session, msg *message.Message) (bool, error) {
	exts := s.Extensions()
	steps := make([]extension.Step, 0, len(exts))
	for i := len(exts) - 1; i >= 0; i-- {
		hook, ok := exts[i].(OutgoingHook)
		if !ok {
			continue
		}
		steps = append(steps, func() (bool, error) { return hook.Outgoing(sender, receiver, msg) })
	}
	return extension.Fold(steps)
}

// RunIncoming folds this session's incoming hooks (registration order)
// over msg, catching extension errors as continue=true per the
// asymmetry preserved from spec §9 (server-incoming propagates,
// session-incoming recovers).
func (s *Session) RunIncoming(msg *message.Message) (bool, []error) {
	exts := s.Extensions()
	steps := make([]extension.Step, 0, len(exts))
	for _, ext := range exts {
		hook, ok := ext.(IncomingHook)
		if !ok {
			continue
		}
		steps = append(steps, func() (bool, error) { return hook.Incoming(s, msg) })
	}
	return extension.FoldRecover(steps)
}

// RunOutgoing exports runOutgoing for callers outside the package (the
// broker folds a session's outgoing hooks over a reply message, not
// just over queued deliveries).
func (s *Session) RunOutgoing(sender, receiver *Session, msg *message.Message) (bool, error) {
	return s.runOutgoing(sender, receiver, msg)
}

// Enqueue appends msg directly to the queue without running the
// outgoing extension chain or flushing. The ack extension's replay does
// not go through it: the transport takes the replay set from the
// extension directly.
func (s *Session) Enqueue(msg *message.Message) {
	s.mu.Lock()
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
}

// Drain removes and returns every currently queued message, in FIFO
// order.
func (s *Session) Drain() []*message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queue
	s.queue = nil
	return q
}

// ReplaceQueue overwrites the queue outright. The ack extension's
// replay of unacked batches does not use it: the transport returns the
// extension's replay set in place of Drain (spec §4.7).
func (s *Session) ReplaceQueue(msgs []*message.Message) {
	s.mu.Lock()
	s.queue = msgs
	s.mu.Unlock()
}

// QueueLen reports the number of currently queued messages without
// draining them.
func (s *Session) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
