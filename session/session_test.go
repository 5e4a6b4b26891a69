package session

import (
	"testing"

	"github.com/johnjansen/bayeux/channel"
	"github.com/johnjansen/bayeux/message"
)

func TestNewGeneratesDistinctIDs(t *testing.T) {
	a, err := New("browser1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New("browser1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.ID() == b.ID() {
		t.Error("two sessions got the same id")
	}
	if len(a.ID()) != 40 {
		t.Errorf("len(ID()) = %d, want 40", len(a.ID()))
	}
}

func TestMarkHandshaken(t *testing.T) {
	s, _ := New("browser1")
	if s.Handshaken() {
		t.Fatal("new session should not be handshaken")
	}
	s.MarkHandshaken()
	if !s.Handshaken() {
		t.Error("Handshaken() = false after MarkHandshaken")
	}
}

func TestCalculateTimeoutFallsBackToDefault(t *testing.T) {
	s, _ := New("browser1")
	if got := s.CalculateTimeout(30000); got != 30000 {
		t.Errorf("CalculateTimeout = %d, want server default 30000", got)
	}
	s.SetClientAdvice(5000, 0)
	if got := s.CalculateTimeout(30000); got != 5000 {
		t.Errorf("CalculateTimeout = %d, want client-advertised 5000", got)
	}
}

func TestSubscribeUnsubscribeTracksSessionSide(t *testing.T) {
	s, _ := New("browser1")
	ch := channel.New("/chat/room1")

	s.Subscribe(ch)
	if len(s.Subscriptions()) != 1 {
		t.Fatalf("Subscriptions() len = %d, want 1", len(s.Subscriptions()))
	}
	if !ch.HasSubscriber(s) {
		t.Error("channel does not have session as subscriber")
	}

	s.Unsubscribe(ch)
	if len(s.Subscriptions()) != 0 {
		t.Errorf("Subscriptions() len = %d, want 0", len(s.Subscriptions()))
	}
}

func TestBatchFlushesOnceOnExit(t *testing.T) {
	s, _ := New("browser1")
	flushes := 0
	s.SetFlushHook(func(*Session) { flushes++ })

	s.Batch(func() {
		s.Enqueue(message.New("/chat/room1"))
		s.Enqueue(message.New("/chat/room1"))
		if flushes != 0 {
			t.Error("flush fired before batch exit")
		}
	})

	if flushes != 1 {
		t.Errorf("flushes = %d, want 1", flushes)
	}
	if s.QueueLen() != 2 {
		t.Errorf("QueueLen() = %d, want 2", s.QueueLen())
	}
}

func TestBatchFlushesEvenWhenFnPanics(t *testing.T) {
	s, _ := New("browser1")
	flushes := 0
	s.SetFlushHook(func(*Session) { flushes++ })

	func() {
		defer func() { recover() }()
		s.Batch(func() {
			s.Enqueue(message.New("/chat/room1"))
			panic("boom")
		})
	}()

	if flushes != 1 {
		t.Errorf("flushes = %d, want 1 (batch must flush even on panic)", flushes)
	}
}

func TestIncBatchDecBatchNesting(t *testing.T) {
	s, _ := New("browser1")
	flushes := 0
	s.SetFlushHook(func(*Session) { flushes++ })

	s.IncBatch()
	s.IncBatch()
	s.DecBatch()
	if flushes != 0 {
		t.Error("flush fired before the outer batch closed")
	}
	s.DecBatch()
	if flushes != 1 {
		t.Errorf("flushes = %d, want 1", flushes)
	}
}

func TestDrainEmptiesQueue(t *testing.T) {
	s, _ := New("browser1")
	s.Enqueue(message.New("/a"))
	s.Enqueue(message.New("/b"))

	msgs := s.Drain()
	if len(msgs) != 2 {
		t.Fatalf("Drain() len = %d, want 2", len(msgs))
	}
	if s.QueueLen() != 0 {
		t.Errorf("QueueLen() after Drain = %d, want 0", s.QueueLen())
	}
}

func TestReplaceQueueOverwrites(t *testing.T) {
	s, _ := New("browser1")
	s.Enqueue(message.New("/a"))
	s.ReplaceQueue([]*message.Message{message.New("/x"), message.New("/y")})
	if s.QueueLen() != 2 {
		t.Errorf("QueueLen() = %d, want 2", s.QueueLen())
	}
}

type fakeWaiter struct{ cancelled bool }

func (f *fakeWaiter) Cancel() { f.cancelled = true }

func TestRemoveCancelsWaiterAndUnsubscribes(t *testing.T) {
	s, _ := New("browser1")
	ch := channel.New("/chat/room1")
	s.Subscribe(ch)
	s.MarkHandshaken()

	w := &fakeWaiter{}
	s.AttachWaiter(w)

	s.Remove(false)

	if !w.cancelled {
		t.Error("Remove did not cancel the attached waiter")
	}
	if s.Handshaken() {
		t.Error("Remove should clear handshaken")
	}
	if len(s.Subscriptions()) != 0 {
		t.Error("Remove should unsubscribe from every channel")
	}
	if ch.HasSubscriber(s) {
		t.Error("channel should no longer have session as subscriber")
	}
}

func TestDeliverVetoedByReceiverOutgoingHook(t *testing.T) {
	receiver, _ := New("browser1")
	flushes := 0
	receiver.SetFlushHook(func(*Session) { flushes++ })
	receiver.AddExtension(vetoOutgoing{})

	receiver.Deliver(nil, message.New("/chat/room1"))

	if flushes != 0 {
		t.Error("Deliver should not have queued/flushed a vetoed message")
	}
	if receiver.QueueLen() != 0 {
		t.Errorf("QueueLen() = %d, want 0", receiver.QueueLen())
	}
}

type vetoOutgoing struct{}

func (vetoOutgoing) Outgoing(sender, receiver *Session, m *message.Message) (bool, error) {
	return false, nil
}
