package session

import "time"

// ScheduleExpiration records the wall-clock time this session became
// eligible for sweeping: scheduleTime is now and expireTime is set
// interval+maxInterval out. The transport calls it once a request
// carrying /meta/handshake or /meta/connect has been answered (after
// any hold resolves); while a /meta/connect is being processed,
// SuspendExpiration keeps expireTime at 0 (spec §4.3).
func (s *Session) ScheduleExpiration(interval, maxInterval int64) {
	now := time.Now().UnixMilli()
	s.mu.Lock()
	s.scheduleTime = now
	s.expireTime = now + interval + maxInterval
	s.mu.Unlock()
}

// SuspendExpiration clears expireTime for the duration of a held
// /meta/connect, so the sweeper never reaps a session whose long poll
// is legitimately still open.
func (s *Session) SuspendExpiration() {
	s.mu.Lock()
	s.expireTime = 0
	s.mu.Unlock()
}

// ResumeExpiration recomputes expireTime for an inbound message other
// than /meta/connect (the broker pipeline calls it for each one): the
// new expireTime is now plus the time elapsed since scheduleTime plus
// maxInterval.
func (s *Session) ResumeExpiration(maxInterval int64) {
	now := time.Now().UnixMilli()
	s.mu.Lock()
	held := now - s.scheduleTime
	if held < 0 {
		held = 0
	}
	s.expireTime = now + held + maxInterval
	s.mu.Unlock()
}

// Expired reports whether this session's expireTime has passed. A
// session with expireTime == 0 is never considered expired (it is
// either mid-handshake or holding an open connect).
func (s *Session) Expired(nowMillis int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireTime != 0 && nowMillis >= s.expireTime
}
