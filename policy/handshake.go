// Package policy supplies broker.Policy implementations: a
// bcrypt-verified shared-secret handshake check and a sliding-window
// rate limiter, both adapted from the host application's authentication
// package into the Can* hooks broker.Policy expects.
package policy

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

// SharedSecretPolicy denies /meta/handshake unless the client presents
// ext.secret matching the configured bcrypt hash. It implements only
// broker.CanHandshaker — broker.Policy treats every other hook as
// permitted when a policy doesn't implement it.
type SharedSecretPolicy struct {
	hash []byte
}

// NewSharedSecretPolicy hashes secret once at construction time with
// bcrypt's default cost, mirroring how the host application stores
// credentials.
func NewSharedSecretPolicy(secret string) (*SharedSecretPolicy, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &SharedSecretPolicy{hash: h}, nil
}

func (p *SharedSecretPolicy) CanHandshake(s *session.Session, m *message.Message) bool {
	if m.Ext == nil {
		return false
	}
	secret, ok := m.Ext["secret"].(string)
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(p.hash, []byte(secret)) == nil
}
