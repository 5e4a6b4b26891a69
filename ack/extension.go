package ack

import (
	"strings"

	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

// SessionExtension is attached to a session whose handshake requested
// ext.ack=true. It implements session.IncomingHook and
// session.OutgoingHook so the normal extension fold carries it without
// the broker needing any ack-specific branch in the delivery path.
type SessionExtension struct {
	Queue *BatchQueue
}

// NewSessionExtension creates the per-session ack state. Called once,
// right after a handshake that negotiated ext.ack=true.
func NewSessionExtension() *SessionExtension {
	return &SessionExtension{Queue: NewBatchQueue()}
}

// Outgoing implements session.OutgoingHook. For a /meta/connect reply
// it stamps ext.ack with the batch it is about to close and advances
// the batch counter; other /meta/ replies pass through unrecorded; for
// any broadcast message it records the message in the replay log tagged
// with the currently open batch. It never vetoes delivery — replay
// logging is additive to normal queuing.
func (e *SessionExtension) Outgoing(sender, receiver *session.Session, m *message.Message) (bool, error) {
	if m.Channel == "/meta/connect" {
		closed := e.Queue.CloseBatch()
		if m.Ext == nil {
			m.Ext = make(message.Ext)
		}
		m.Ext["ack"] = closed
		return true, nil
	}
	if strings.HasPrefix(m.Channel, "/meta/") {
		return true, nil
	}

	e.Queue.Add(m)
	return true, nil
}

// Incoming implements session.IncomingHook. A /meta/connect carrying
// ext.ack=N acknowledges every message through batch N. If messages
// remain unacked after that but the session's own outbound queue is
// empty, it forces advice.timeout=0 so the server answers immediately
// with the replay instead of holding a fresh long poll open on top of
// messages the client hasn't seen yet.
func (e *SessionExtension) Incoming(s *session.Session, m *message.Message) (bool, error) {
	if m.Channel != "/meta/connect" {
		return true, nil
	}
	n, ok := ackValue(m.Ext)
	if !ok {
		return true, nil
	}
	e.Queue.AckUpTo(n)
	if !e.Queue.Empty() && s.QueueLen() == 0 {
		adv := m.EnsureAdvice()
		var zero int64
		adv.Timeout = &zero
	}
	return true, nil
}

// DrainReplacement returns the resend set for a /meta/connect reply
// that just closed batch `closed` — everything still unacked through
// that batch, in delivery order. The transport calls this instead of
// Session.Drain() when the response carries a /meta/connect reply whose
// ext.ack this extension stamped, per spec §4.7's queue-drain hook.
func (e *SessionExtension) DrainReplacement(closed int) []*message.Message {
	return e.Queue.SliceToBatch(closed)
}

// BatchNumber extracts the ext.ack batch number from a /meta/connect
// reply, if present — the transport reads this to know which batch to
// resend from when a session carries this extension.
func BatchNumber(m *message.Message) (int, bool) {
	return ackValue(m.Ext)
}

func ackValue(ext message.Ext) (int, bool) {
	if ext == nil {
		return 0, false
	}
	raw, ok := ext["ack"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// RequestsAck reports whether a /meta/handshake message asked for the
// ack extension via ext.ack=true.
func RequestsAck(m *message.Message) bool {
	if m.Ext == nil {
		return false
	}
	v, ok := m.Ext["ack"].(bool)
	return ok && v
}

// AdvertiseAck stamps ext.ack=true on a /meta/handshake reply.
func AdvertiseAck(reply *message.Message) {
	if reply.Ext == nil {
		reply.Ext = make(message.Ext)
	}
	reply.Ext["ack"] = true
}
