package policy

import (
	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

// handshaker is the CanHandshake subset a Chain member must implement.
type handshaker interface {
	CanHandshake(s *session.Session, m *message.Message) bool
}

// Chain combines several CanHandshaker policies into one, denying a
// handshake the moment any member denies it. This lets the demo
// binary run the rate limiter ahead of the shared-secret check without
// broker.Policy needing to know about either.
type Chain struct {
	handshakers []handshaker
}

// NewChain builds a Chain from any number of CanHandshake-implementing
// policies, evaluated in the given order.
func NewChain(handshakers ...handshaker) *Chain {
	return &Chain{handshakers: handshakers}
}

func (c *Chain) CanHandshake(s *session.Session, m *message.Message) bool {
	for _, h := range c.handshakers {
		if !h.CanHandshake(s, m) {
			return false
		}
	}
	return true
}
