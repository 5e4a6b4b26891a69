package ack

import (
	"testing"

	"github.com/johnjansen/bayeux/message"
)

func TestCloseBatchAdvances(t *testing.T) {
	q := NewBatchQueue()
	if q.CurrentBatch() != 0 {
		t.Fatalf("CurrentBatch() = %d, want 0", q.CurrentBatch())
	}
	if closed := q.CloseBatch(); closed != 0 {
		t.Errorf("CloseBatch() = %d, want 0", closed)
	}
	if q.CurrentBatch() != 1 {
		t.Errorf("CurrentBatch() = %d, want 1", q.CurrentBatch())
	}
}

func TestAddTagsWithCurrentBatch(t *testing.T) {
	q := NewBatchQueue()
	q.Add(message.New("/a"))
	q.CloseBatch() // closes batch 0, opens batch 1
	q.Add(message.New("/b"))

	batch0 := q.SliceToBatch(0)
	if len(batch0) != 1 {
		t.Fatalf("SliceToBatch(0) len = %d, want 1", len(batch0))
	}

	all := q.SliceToBatch(1)
	if len(all) != 2 {
		t.Errorf("SliceToBatch(1) len = %d, want 2", len(all))
	}
}

func TestAckUpToDiscardsOlderBatches(t *testing.T) {
	q := NewBatchQueue()
	q.Add(message.New("/a"))
	q.CloseBatch()
	q.Add(message.New("/b"))
	q.CloseBatch()
	q.Add(message.New("/c"))

	q.AckUpTo(0)

	if q.Empty() {
		t.Fatal("queue should still hold batch 1 and 2 entries")
	}
	remaining := q.SliceToBatch(2)
	if len(remaining) != 2 {
		t.Errorf("remaining = %d, want 2", len(remaining))
	}
}

func TestEmptyAfterAckingEverything(t *testing.T) {
	q := NewBatchQueue()
	q.Add(message.New("/a"))
	closed := q.CloseBatch()
	q.AckUpTo(closed)
	if !q.Empty() {
		t.Error("Empty() = false after acking every stored batch")
	}
}
