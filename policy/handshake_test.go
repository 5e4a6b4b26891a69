package policy

import (
	"testing"

	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

func TestSharedSecretPolicyAcceptsMatchingSecret(t *testing.T) {
	p, err := NewSharedSecretPolicy("hunter2")
	if err != nil {
		t.Fatalf("NewSharedSecretPolicy: %v", err)
	}
	s, _ := session.New("b1")
	m := message.New("/meta/handshake")
	m.Ext = message.Ext{"secret": "hunter2"}

	if !p.CanHandshake(s, m) {
		t.Error("CanHandshake should accept the matching secret")
	}
}

func TestSharedSecretPolicyRejectsWrongSecret(t *testing.T) {
	p, _ := NewSharedSecretPolicy("hunter2")
	s, _ := session.New("b1")
	m := message.New("/meta/handshake")
	m.Ext = message.Ext{"secret": "wrong"}

	if p.CanHandshake(s, m) {
		t.Error("CanHandshake should reject a non-matching secret")
	}
}

func TestSharedSecretPolicyRejectsMissingExt(t *testing.T) {
	p, _ := NewSharedSecretPolicy("hunter2")
	s, _ := session.New("b1")
	m := message.New("/meta/handshake")

	if p.CanHandshake(s, m) {
		t.Error("CanHandshake should reject a handshake with no ext.secret")
	}
}
