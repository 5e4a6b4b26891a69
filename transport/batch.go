package transport

import (
	"net/http"

	"github.com/johnjansen/bayeux/ack"
	"github.com/johnjansen/bayeux/longpoll"
	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

// handleBatch folds msgs left-to-right through the broker pipeline
// (spec §4.5 steps 2-6). It returns the accumulated replies, the
// queued messages to prepend to them, whether a Set-Cookie is owed,
// and an HTTP status override (0 meaning "200, proceed normally").
func (t *Transport) handleBatch(r *http.Request, msgs []*message.Message, browserID string, hadCookie bool) (replies, queued []*message.Message, setCookie bool, status int) {
	var primary *session.Session
	batchOpened := false
	sendQueue := false
	scheduleExpiration := false
	var connectReply *message.Message

	for i, m := range msgs {
		s := t.resolveSession(m, browserID)

		if i == 0 {
			primary = s
			if s != nil && m.Channel != "/meta/connect" {
				s.IncBatch()
				batchOpened = true
			}
		}

		reply := t.broker.Process(s, m)
		replies = append(replies, reply)

		switch m.Channel {
		case "/meta/handshake":
			scheduleExpiration = true
			if s != nil && reply.IsSuccessful() {
				setCookie = !hadCookie
			}
		case "/meta/connect":
			sendQueue = true
			scheduleExpiration = true
			connectReply = reply
		default:
			if s != nil && !s.MetaConnectDeliveryOnly() {
				sendQueue = true
			}
		}
	}

	if batchOpened && primary != nil {
		primary.DecBatch()
	}

	if connectReply != nil && primary != nil && connectReply.IsSuccessful() {
		status = t.suspendAndWait(r, primary, connectReply, len(msgs) == 1)
	}

	if scheduleExpiration && primary != nil {
		primary.ScheduleExpiration(primary.CalculateInterval(t.cfg.Interval), t.cfg.MaxInterval)
	}

	if sendQueue && primary != nil && status == 0 {
		queued = t.drain(primary, connectReply)
	}

	return replies, queued, setCookie, status
}

// resolveSession picks the session for message m: a fresh,
// not-yet-registered session for /meta/handshake, or the session
// matching m.ClientID for everything else (spec §4.5 step 2).
func (t *Transport) resolveSession(m *message.Message, browserID string) *session.Session {
	if m.Channel == "/meta/handshake" {
		s, err := t.broker.NewSession(browserID)
		if err != nil {
			return nil
		}
		return s
	}
	s, _ := t.broker.GetSession(m.ClientID)
	return s
}

// suspendAndWait arms the /meta/connect waiter and blocks this request
// goroutine until it resolves, returning the status code the response
// should complete with (0 for the normal 200 path). If the client
// disconnects while the connect is held (req.Context() is done), the
// waiter is cancelled the same way session removal cancels it (spec
// §4.4's transport-error resolution path), freeing the browser group's
// hold slot and the waiter goroutine instead of blocking until timeout.
func (t *Transport) suspendAndWait(req *http.Request, s *session.Session, reply *message.Message, onlyMessage bool) int {
	type result struct {
		reason longpoll.Reason
		code   int
	}
	done := make(chan result, 1)

	held := t.broker.SuspendConnect(s, reply, onlyMessage, func(reason longpoll.Reason, code int) {
		done <- result{reason, code}
	})
	if !held {
		return 0
	}

	select {
	case r := <-done:
		if r.reason == longpoll.ReasonDuplicate {
			return r.code
		}
		return 0
	case <-req.Context().Done():
		if w := s.CurrentWaiter(); w != nil {
			w.Cancel()
		}
		<-done
		return 0
	}
}

// drain returns the messages to prepend to the response body: the
// normal FIFO queue, or — for a session carrying the ack extension and
// a /meta/connect reply in this batch — the replay set for the batch
// that reply just closed (spec §4.7's queue-drain hook).
func (t *Transport) drain(s *session.Session, connectReply *message.Message) []*message.Message {
	if connectReply != nil {
		if aext := lookupAckExtension(s); aext != nil {
			if n, ok := ack.BatchNumber(connectReply); ok {
				return aext.DrainReplacement(n)
			}
		}
	}
	return s.Drain()
}
