package broker

import (
	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

// Policy is the pluggable security/authorization surface. A Broker's
// policy can implement any subset of the Can* interfaces below; a
// policy that doesn't implement one is treated as "permitted" for that
// check (spec §4.1: "a missing method means permitted"). This is why
// Policy itself is an empty interface rather than requiring all four
// methods — callers type-assert for the one they need.
type Policy interface{}

// CanHandshaker is consulted on every /meta/handshake.
type CanHandshaker interface {
	CanHandshake(s *session.Session, m *message.Message) bool
}

// CanCreater is consulted before a channel is created on first
// reference (subscribe, publish, or explicit create).
type CanCreater interface {
	CanCreate(s *session.Session, channelName string) bool
}

// CanSubscriber is consulted per channel name in a /meta/subscribe.
type CanSubscriber interface {
	CanSubscribe(s *session.Session, channelName string) bool
}

// CanPublisher is consulted for publishes to non-meta channels.
type CanPublisher interface {
	CanPublish(s *session.Session, channelName string) bool
}

func canHandshake(p Policy, s *session.Session, m *message.Message) bool {
	if p == nil {
		return true
	}
	if h, ok := p.(CanHandshaker); ok {
		return h.CanHandshake(s, m)
	}
	return true
}

func canCreate(p Policy, s *session.Session, name string) bool {
	if p == nil {
		return true
	}
	if h, ok := p.(CanCreater); ok {
		return h.CanCreate(s, name)
	}
	return true
}

func canSubscribe(p Policy, s *session.Session, name string) bool {
	if p == nil {
		return true
	}
	if h, ok := p.(CanSubscriber); ok {
		return h.CanSubscribe(s, name)
	}
	return true
}

func canPublish(p Policy, s *session.Session, name string) bool {
	if p == nil {
		return true
	}
	if h, ok := p.(CanPublisher); ok {
		return h.CanPublish(s, name)
	}
	return true
}
