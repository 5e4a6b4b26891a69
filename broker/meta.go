package broker

import (
	"github.com/johnjansen/bayeux/ack"
	"github.com/johnjansen/bayeux/channel"
	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

func (b *Broker) dispatchMeta(s *session.Session, ch *channel.Channel, m *message.Message) {
	switch ch.Name() {
	case "/meta/handshake":
		b.handleHandshake(s, m)
	case "/meta/connect":
		b.handleConnect(s, m)
	case "/meta/subscribe":
		b.handleSubscribe(s, m)
	case "/meta/unsubscribe":
		b.handleUnsubscribe(s, m)
	case "/meta/disconnect":
		b.handleDisconnect(s, m)
	}
}

func (b *Broker) handleHandshake(s *session.Session, m *message.Message) {
	reply := m.Reply
	if !canHandshake(b.policy, s, m) {
		reply.SetError(message.ErrHandshakeDenied)
		if reply.Advice == nil {
			reply.EnsureAdvice().Reconnect = message.ReconnectNone
		}
		return
	}

	s.MarkHandshaken()
	b.sessions.Add(s)

	reply.SetSuccessful(true)
	reply.ClientID = s.ID()
	reply.Version = "1.0"
	reply.SupportedConnectionTypes = []string{"long-polling"}
	adv := reply.EnsureAdvice()
	adv.Reconnect = message.ReconnectRetry
	adv.Timeout = int64Ptr(b.cfg.Timeout)
	adv.Interval = int64Ptr(b.cfg.Interval)

	if ack.RequestsAck(m) {
		s.AddExtension(ack.NewSessionExtension())
		s.SetMetaConnectDeliveryOnly(true)
		ack.AdvertiseAck(reply)
	}
}

// handleConnect only records the client's advertised timing and leaves
// the suspension decision (spec §4.4) to the transport, which runs
// after the whole message batch has been folded.
func (b *Broker) handleConnect(s *session.Session, m *message.Message) {
	reply := m.Reply
	timeout, interval := connectAdvice(m)
	s.SetClientAdvice(timeout, interval)
	reply.SetSuccessful(true)
}

func connectAdvice(m *message.Message) (int64, int64) {
	timeout, interval := int64(-1), int64(-1)
	if m.Advice == nil {
		return timeout, interval
	}
	if m.Advice.Timeout != nil {
		timeout = *m.Advice.Timeout
	}
	if m.Advice.Interval != nil {
		interval = *m.Advice.Interval
	}
	return timeout, interval
}

func (b *Broker) handleSubscribe(s *session.Session, m *message.Message) {
	reply := m.Reply
	names, ok := m.SubscriptionChannels()
	if !ok {
		reply.SetError(message.ErrSubscriptionMissing)
		return
	}

	channels := make([]*channel.Channel, 0, len(names))
	for _, name := range names {
		existing, existed := b.channels.Get(name)
		if !existed {
			if !canCreate(b.policy, s, name) {
				reply.SetError(message.ErrSubscribeDenied)
				return
			}
			existing = b.CreateChannel(name)
		}
		if !canSubscribe(b.policy, s, name) {
			reply.SetError(message.ErrSubscribeDenied)
			return
		}
		channels = append(channels, existing)
	}

	if !s.Handshaken() {
		reply.SetError(message.ErrSubscribeFailed)
		return
	}

	for _, ch := range channels {
		s.Subscribe(ch)
	}
	reply.SetSuccessful(true)
	reply.Subscription = m.Subscription
}

func (b *Broker) handleUnsubscribe(s *session.Session, m *message.Message) {
	reply := m.Reply
	names, ok := m.SubscriptionChannels()
	if !ok {
		reply.SetError(message.ErrSubscriptionMissing)
		return
	}

	if !s.Handshaken() {
		reply.SetError(message.ErrUnsubscribeFailed)
		return
	}

	for _, name := range names {
		ch, existed := b.channels.Get(name)
		if !existed {
			continue // unknown channels are silently skipped, per spec §4.1
		}
		s.Unsubscribe(ch)
	}
	reply.SetSuccessful(true)
	reply.Subscription = m.Subscription
}

func (b *Broker) handleDisconnect(s *session.Session, m *message.Message) {
	m.Reply.SetSuccessful(true)
	b.sessions.Remove(s.ID(), false)
}
