package policy

import (
	"testing"
	"time"

	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	r := NewRateLimiter(2, time.Minute, time.Minute)
	s, _ := session.New("b1")
	m := message.New("/meta/handshake")

	if !r.CanHandshake(s, m) {
		t.Fatal("1st attempt should be allowed")
	}
	if !r.CanHandshake(s, m) {
		t.Fatal("2nd attempt (== maxAttempts) should be allowed")
	}
	if r.CanHandshake(s, m) {
		t.Error("3rd attempt should be locked out")
	}
}

func TestRateLimiterLockoutIsPerBrowser(t *testing.T) {
	r := NewRateLimiter(1, time.Minute, time.Minute)
	a, _ := session.New("browserA")
	b, _ := session.New("browserB")
	m := message.New("/meta/handshake")

	r.CanHandshake(a, m) // uses browserA's one allowed attempt; the next trips lockout
	if r.CanHandshake(a, m) {
		t.Error("browserA should be locked out")
	}
	if !r.CanHandshake(b, m) {
		t.Error("browserB should be unaffected by browserA's lockout")
	}
}

func TestRateLimiterLockoutExpires(t *testing.T) {
	r := NewRateLimiter(1, time.Minute, time.Millisecond)
	s, _ := session.New("b1")
	m := message.New("/meta/handshake")

	r.CanHandshake(s, m)
	if r.CanHandshake(s, m) {
		t.Fatal("should be locked out immediately after tripping")
	}
	time.Sleep(5 * time.Millisecond)
	if !r.CanHandshake(s, m) {
		t.Error("lockout should have expired")
	}
}
