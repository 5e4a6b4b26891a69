package session

// RemovedListener is notified when a session is torn down, either by
// explicit /meta/disconnect or by the sweeper expiring it.
type RemovedListener func(s *Session, timedOut bool)

// Remove unsubscribes this session from every channel it currently
// holds, cancels any in-flight waiter, and marks it no longer
// handshaken. Registry.Remove calls it, after taking the session out of
// the registry and before firing the removed listeners; browser-group
// cleanup happens in the broker's removed listener. Remove only tears
// down the session's own state.
func (s *Session) Remove(timedOut bool) {
	for _, ch := range s.Subscriptions() {
		s.Unsubscribe(ch)
	}

	s.mu.Lock()
	waiter := s.waiter
	s.waiter = nil
	s.handshaken = false
	s.mu.Unlock()

	if waiter != nil {
		waiter.Cancel()
	}
}
