// SPDX-License-Identifier: MIT

// Package queue bridges HTTP workers to the rendering host's main
// thread: workers enqueue operations onto bounded per-kind channels and
// block on a one-shot result channel; the tick executor alone drains
// the queue, at most max_operations_per_cycle entries per tick.
package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/simwire/omnigate/internal/envelope"
)

// Channel identifies one of the queue's operation kinds.
type Channel string

const (
	ChannelElements Channel = "elements"
	ChannelBatches  Channel = "batches"
	ChannelAssets   Channel = "assets"
	ChannelOther    Channel = "other"
)

// channelOrder is the fixed drain order; the executor rotates its
// starting point across ticks so no channel starves another.
var channelOrder = []Channel{ChannelElements, ChannelBatches, ChannelAssets, ChannelOther}

// ErrQueueFull is returned by Enqueue when the target channel is at
// capacity. Callers surface it as QUEUE_FULL rather than blocking.
var ErrQueueFull = errors.New("queue: channel full")

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("queue: closed")

// Entry is one queued operation. The result channel is buffered so the
// executor never blocks on a caller that timed out and walked away.
type Entry struct {
	CorrelationID string
	Operation     string
	Channel       Channel
	Payload       map[string]any
	TrackerID     string // optional; set when the caller polls request_status
	EnqueuedAt    time.Time

	result chan envelope.Envelope
}

// Result returns the one-shot channel carrying the operation outcome.
func (e *Entry) Result() <-chan envelope.Envelope { return e.result }

func (e *Entry) deliver(env envelope.Envelope) {
	select {
	case e.result <- env:
	default:
	}
}

// Queue is the bounded multi-channel operation queue.
type Queue struct {
	mu       sync.Mutex
	capacity int
	closed   bool
	pending  map[Channel][]*Entry
	now      func() time.Time
}

// New creates a queue whose channels each hold up to capacity entries.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	q := &Queue{
		capacity: capacity,
		pending:  make(map[Channel][]*Entry, len(channelOrder)),
		now:      time.Now,
	}
	for _, ch := range channelOrder {
		q.pending[ch] = nil
	}
	return q
}

// Enqueue appends an operation to its channel and returns the entry
// carrying the correlation id and result channel. Fails fast with
// ErrQueueFull when the channel is at capacity.
func (q *Queue) Enqueue(ch Channel, operation string, payload map[string]any, trackerID string) (*Entry, error) {
	switch ch {
	case ChannelElements, ChannelBatches, ChannelAssets, ChannelOther:
	default:
		ch = ChannelOther
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrClosed
	}
	if len(q.pending[ch]) >= q.capacity {
		return nil, ErrQueueFull
	}

	e := &Entry{
		CorrelationID: uuid.NewString(),
		Operation:     operation,
		Channel:       ch,
		Payload:       payload,
		TrackerID:     trackerID,
		EnqueuedAt:    q.now(),
		result:        make(chan envelope.Envelope, 1),
	}
	q.pending[ch] = append(q.pending[ch], e)
	return e, nil
}

// Drain removes up to budget entries, FIFO within each channel,
// rotating the starting channel by tick so sustained traffic on one
// channel cannot starve the others.
func (q *Queue) Drain(budget, tick int) []*Entry {
	if budget <= 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*Entry
	n := len(channelOrder)
	for i := 0; i < n && len(out) < budget; i++ {
		ch := channelOrder[(tick+i)%n]
		for len(q.pending[ch]) > 0 && len(out) < budget {
			out = append(out, q.pending[ch][0])
			q.pending[ch] = q.pending[ch][1:]
		}
	}
	return out
}

// Depth reports the number of pending entries across all channels.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	total := 0
	for _, entries := range q.pending {
		total += len(entries)
	}
	return total
}

// DepthByChannel reports per-channel pending counts.
func (q *Queue) DepthByChannel() map[Channel]int {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make(map[Channel]int, len(q.pending))
	for ch, entries := range q.pending {
		out[ch] = len(entries)
	}
	return out
}

// Close stops accepting new entries and fails all pending ones with a
// SERVICE_UNAVAILABLE envelope so no worker is left waiting.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	for ch, entries := range q.pending {
		for _, e := range entries {
			e.deliver(envelope.Error(envelope.CodeServiceUnavailable, "service is shutting down"))
		}
		q.pending[ch] = nil
	}
}
