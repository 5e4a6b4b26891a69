package broker

import (
	"testing"
	"time"

	"github.com/johnjansen/bayeux/longpoll"
	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

// unlimitedConfig gives a browser group no session cap, isolating the
// waiter-arming tests from the maxSessionsPerBrowser checks exercised
// separately below.
func unlimitedConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxSessionsPerBrowser = -1
	return cfg
}

func handshaken(t *testing.T, b *Broker, browserID string) *session.Session {
	t.Helper()
	s, err := b.NewSession(browserID)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	reply := b.Process(s, message.New("/meta/handshake"))
	if !reply.IsSuccessful() {
		t.Fatalf("handshake failed: %+v", reply)
	}
	return s
}

func TestSuspendConnectArmsWaiterWhenQueueEmpty(t *testing.T) {
	b := New(unlimitedConfig())
	defer b.Close()
	s := handshaken(t, b, "browser1")

	reply := message.New("/meta/connect")
	reply.SetSuccessful(true)

	resolved := make(chan longpoll.Reason, 1)
	armed := b.SuspendConnect(s, reply, true, func(reason longpoll.Reason, code int) {
		resolved <- reason
	})
	if !armed {
		t.Fatal("SuspendConnect should have armed a waiter")
	}

	s.Enqueue(message.New("/chat/room1"))
	s.CurrentWaiter().(*longpoll.Waiter).Resume()

	select {
	case r := <-resolved:
		if r != longpoll.ReasonResumed {
			t.Errorf("resolved reason = %v, want ReasonResumed", r)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter never resolved")
	}
}

func TestSuspendConnectDoesNotArmWhenQueueNonEmpty(t *testing.T) {
	b := New(unlimitedConfig())
	defer b.Close()
	s := handshaken(t, b, "browser1")
	s.Enqueue(message.New("/chat/room1"))

	reply := message.New("/meta/connect")
	reply.SetSuccessful(true)

	armed := b.SuspendConnect(s, reply, true, func(longpoll.Reason, int) {})
	if armed {
		t.Error("SuspendConnect should not arm a waiter when messages are already queued")
	}
}

func TestSuspendConnectRejectsOverCapacityBrowserGroup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSessionsPerBrowser = 1
	cfg.MultiSessionInterval = 0
	b := New(cfg)
	defer b.Close()

	first := handshaken(t, b, "browser1")
	reply1 := message.New("/meta/connect")
	reply1.SetSuccessful(true)
	armed1 := b.SuspendConnect(first, reply1, true, func(longpoll.Reason, int) {})
	if !armed1 {
		t.Fatal("the first session's connect should be armed, it is the only hold outstanding")
	}

	second := handshaken(t, b, "browser1")
	reply2 := message.New("/meta/connect")
	reply2.SetSuccessful(true)
	armed := b.SuspendConnect(second, reply2, true, func(longpoll.Reason, int) {})

	if armed {
		t.Error("a second concurrent hold over maxSessionsPerBrowser should not be armed")
	}
	if !reply2.Advice.MultipleClients {
		t.Error("reply should carry advice.multiple-clients")
	}
	if reply2.IsSuccessful() {
		t.Error("with MultiSessionInterval=0 the over-capacity connect should be marked unsuccessful")
	}
}

func TestDuplicateConnectPreemptsPriorWaiter(t *testing.T) {
	b := New(unlimitedConfig())
	defer b.Close()
	s := handshaken(t, b, "browser1")

	reply1 := message.New("/meta/connect")
	reply1.SetSuccessful(true)
	resolved := make(chan longpoll.Reason, 1)
	b.SuspendConnect(s, reply1, true, func(reason longpoll.Reason, code int) { resolved <- reason })

	reply2 := message.New("/meta/connect")
	reply2.SetSuccessful(true)
	b.SuspendConnect(s, reply2, true, func(longpoll.Reason, int) {})

	select {
	case r := <-resolved:
		if r != longpoll.ReasonDuplicate {
			t.Errorf("first waiter resolved with %v, want ReasonDuplicate", r)
		}
	case <-time.After(time.Second):
		t.Fatal("first waiter was never preempted")
	}
}
