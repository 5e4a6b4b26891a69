// Package ack implements the acknowledged-messages extension (spec.md
// §4.7): a per-session batch-numbered outbound log that replays
// unacknowledged messages across a broken connection, giving
// at-least-once delivery with client-driven de-duplication.
package ack

import (
	"sync"

	"github.com/johnjansen/bayeux/message"
)

type entry struct {
	batch int
	msg   *message.Message
}

// BatchQueue stores every broadcast message delivered to a session,
// tagged with the batch number open at the time of delivery, until the
// client acknowledges it. It never drops a message on its own —
// messages are only removed by an explicit AckUpTo.
type BatchQueue struct {
	mu      sync.Mutex
	entries []entry
	current int
}

func NewBatchQueue() *BatchQueue {
	return &BatchQueue{}
}

// Add stores msg tagged with the currently open batch.
func (q *BatchQueue) Add(msg *message.Message) {
	q.mu.Lock()
	q.entries = append(q.entries, entry{batch: q.current, msg: msg})
	q.mu.Unlock()
}

// CloseBatch closes the currently open batch and returns its number,
// then opens the next one. Called once per /meta/connect reply.
func (q *BatchQueue) CloseBatch() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	closed := q.current
	q.current++
	return closed
}

// AckUpTo discards every stored message tagged with a batch <= n — the
// client has confirmed receipt of everything through batch n.
func (q *BatchQueue) AckUpTo(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.batch > n {
			kept = append(kept, e)
		}
	}
	q.entries = kept
}

// SliceToBatch returns every currently stored message tagged with a
// batch <= n, in original delivery order — the resend set for a
// /meta/connect that just closed batch n.
func (q *BatchQueue) SliceToBatch(n int) []*message.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*message.Message, 0, len(q.entries))
	for _, e := range q.entries {
		if e.batch <= n {
			out = append(out, e.msg)
		}
	}
	return out
}

// Empty reports whether the queue currently holds any unacked message.
func (q *BatchQueue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries) == 0
}

// CurrentBatch returns the number of the batch currently open (not yet
// closed by a /meta/connect reply).
func (q *BatchQueue) CurrentBatch() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}
