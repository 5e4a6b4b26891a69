package broker

import (
	"github.com/johnjansen/bayeux/channel"
	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

func int64Ptr(v int64) *int64 { return &v }

func isHandshakeOrConnect(ch string) bool {
	return ch == "/meta/handshake" || ch == "/meta/connect"
}

func kindName(k channel.Kind) string {
	switch k {
	case channel.Meta:
		return "meta"
	case channel.Service:
		return "service"
	default:
		return "broadcast"
	}
}

// Process runs the nine-step message pipeline from spec.md §4.1 for
// one inbound message and returns its reply. s is the session resolved
// by the transport for this message's clientId; it is nil when the
// clientId didn't match any known session (or hasn't been created yet
// for a /meta/handshake the transport is still routing).
func (b *Broker) Process(s *session.Session, m *message.Message) *message.Message {
	reply := message.New(m.Channel)
	reply.ID = m.ID
	reply.SetSuccessful(true)
	m.Reply = reply

	if s == nil {
		reply.SetError(message.ErrSessionUnknown)
		if isHandshakeOrConnect(m.Channel) {
			adv := reply.EnsureAdvice()
			adv.Reconnect = message.ReconnectHandshake
			adv.Interval = int64Ptr(0)
		}
		return reply
	}

	if m.Channel == "" {
		reply.SetError(message.ErrChannelMissing)
		return reply
	}

	isMetaConnect := m.Channel == "/meta/connect"
	if isMetaConnect {
		s.SuspendExpiration()
	} else {
		s.ResumeExpiration(b.cfg.MaxInterval)
	}

	if cont, err := b.foldIncoming(s, m); err != nil {
		b.logger.Errorf("server incoming extension error on %s: %v", m.Channel, err)
		reply.SetError(message.ErrMessageDeleted)
		return reply
	} else if !cont {
		reply.SetError(message.ErrMessageDeleted)
		return reply
	}

	if cont, errs := s.RunIncoming(m); true {
		for _, e := range errs {
			b.logger.Warnf("session incoming extension error on %s: %v", m.Channel, e)
		}
		if !cont {
			reply.SetError(message.ErrMessageDeleted)
			return reply
		}
	}

	existing, existed := b.channels.Get(m.Channel)
	if !existed {
		if !canCreate(b.policy, s, m.Channel) {
			reply.SetError(message.ErrChannelDenied)
			return reply
		}
	}
	ch := existing
	if !existed {
		ch = b.CreateChannel(m.Channel)
	}

	if !ch.IsMeta() {
		if !canPublish(b.policy, s, m.Channel) {
			reply.SetError(message.ErrPublishDenied)
			return reply
		}
	}

	b.publish(s, ch, m)

	if cont, err := b.foldOutgoing(s, s, reply); err != nil {
		b.logger.Errorf("server outgoing extension error on reply to %s: %v", m.Channel, err)
	} else if !cont {
		return reply
	}
	if _, err := s.RunOutgoing(s, s, reply); err != nil {
		b.logger.Warnf("session outgoing extension error on reply to %s: %v", m.Channel, err)
	}

	return reply
}

// publish is step 8 of the pipeline: ancestor-first message-listener
// notification, then the server outgoing fold over the broadcast path,
// then either the matching meta handler or subscriber fan-out.
func (b *Broker) publish(s *session.Session, ch *channel.Channel, m *message.Message) {
	if !b.channels.NotifyMessage(ch.Name(), s, m) {
		return
	}

	if cont, err := b.foldOutgoing(s, nil, m); err != nil {
		b.logger.Errorf("server outgoing extension error on publish to %s: %v", ch.Name(), err)
		return
	} else if !cont {
		return
	}

	if ch.IsMeta() {
		b.dispatchMeta(s, ch, m)
		return
	}

	b.metrics.MessagePublished(kindName(ch.Kind()))
	ch.DeliverToSubscribers(s, m)
}
