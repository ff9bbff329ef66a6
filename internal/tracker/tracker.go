// SPDX-License-Identifier: MIT

// Package tracker implements the bounded, TTL-aware request tracker:
// an insertion-ordered map of in-flight and completed operations that
// HTTP workers query for request_status. Oldest entries are evicted
// when the map exceeds max_entries; expired entries are dropped lazily
// on access and eagerly by Prune.
package tracker

import (
	"container/list"
	"sync"
	"time"

	"github.com/simwire/omnigate/internal/envelope"
)

// Entry is a snapshot of one tracked request. Snapshots are independent
// copies; mutating one never affects tracker state.
type Entry struct {
	ID          string
	Operation   string
	Payload     map[string]any
	SubmittedAt time.Time
	Completed   bool
	CompletedAt time.Time
	Result      envelope.Envelope
	Error       envelope.Envelope
}

// Expired reports whether the entry's TTL has elapsed at now. The TTL
// is measured against CompletedAt when the entry completed, otherwise
// against SubmittedAt.
func (e *Entry) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	ref := e.SubmittedAt
	if e.Completed && !e.CompletedAt.IsZero() {
		ref = e.CompletedAt
	}
	return now.Sub(ref) > ttl
}

func (e *Entry) clone() *Entry {
	out := *e
	if e.Payload != nil {
		out.Payload = envelope.Envelope(e.Payload).Clone()
	}
	out.Result = e.Result.Clone()
	out.Error = e.Error.Clone()
	return &out
}

// Snapshot renders the entry as envelope fields for request_status
// responses.
func (e *Entry) Snapshot() map[string]any {
	fields := map[string]any{
		"request_id":   e.ID,
		"operation":    e.Operation,
		"submitted_at": e.SubmittedAt.UTC().Format(time.RFC3339Nano),
		"completed":    e.Completed,
	}
	if e.Completed && !e.CompletedAt.IsZero() {
		fields["completed_at"] = e.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	if e.Result != nil {
		fields["result"] = map[string]any(e.Result.Clone())
	}
	if e.Error != nil {
		fields["error"] = map[string]any(e.Error.Clone())
	}
	return fields
}

// Tracker is the bounded ordered request map. All methods are safe for
// concurrent use; each holds one exclusive mutex briefly.
type Tracker struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	order      *list.List // of *Entry, oldest first
	index      map[string]*list.Element
	now        func() time.Time
}

// New creates a tracker bounded to maxEntries live entries with the
// given TTL. maxEntries <= 0 means unbounded; ttl <= 0 disables expiry.
func New(maxEntries int, ttl time.Duration) *Tracker {
	return &Tracker{
		maxEntries: maxEntries,
		ttl:        ttl,
		order:      list.New(),
		index:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Add inserts a new entry and returns its snapshot. An existing entry
// with the same id is replaced and moved to the back of the order.
func (t *Tracker) Add(id, operation string, payload map[string]any) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.index[id]; ok {
		t.order.Remove(el)
		delete(t.index, id)
	}
	e := &Entry{
		ID:          id,
		Operation:   operation,
		Payload:     envelope.Envelope(payload).Clone(),
		SubmittedAt: t.now(),
	}
	t.index[id] = t.order.PushBack(e)
	t.evictLocked()
	return e.clone()
}

// Update merges non-zero fields into an existing entry and returns the
// updated snapshot, or nil when the entry is absent or expired.
func (t *Tracker) Update(id string, fn func(*Entry)) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.liveLocked(id)
	if e == nil {
		return nil
	}
	fn(e)
	return e.clone()
}

// MarkCompleted stamps the entry completed with its result or error and
// returns the snapshot, or nil when the entry is absent or expired.
func (t *Tracker) MarkCompleted(id string, result, errEnv envelope.Envelope) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.liveLocked(id)
	if e == nil {
		return nil
	}
	e.Completed = true
	e.CompletedAt = t.now()
	e.Result = result.Clone()
	e.Error = errEnv.Clone()
	return e.clone()
}

// Get returns the entry's snapshot, or nil when absent. An expired
// entry is removed and reported as absent.
func (t *Tracker) Get(id string) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.liveLocked(id)
	if e == nil {
		return nil
	}
	return e.clone()
}

// Pop removes and returns the entry's snapshot. Expired entries are
// dropped and reported as absent.
func (t *Tracker) Pop(id string) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.liveLocked(id)
	if e == nil {
		return nil
	}
	t.order.Remove(t.index[id])
	delete(t.index, id)
	return e.clone()
}

// Entries returns snapshots of all live entries in insertion order.
func (t *Tracker) Entries() []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	out := make([]*Entry, 0, t.order.Len())
	for el := t.order.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*Entry)
		if e.Expired(t.ttl, now) {
			t.order.Remove(el)
			delete(t.index, e.ID)
		} else {
			out = append(out, e.clone())
		}
		el = next
	}
	return out
}

// Prune drops all expired entries and returns how many were removed.
func (t *Tracker) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for el := t.order.Front(); el != nil; {
		next := el.Next()
		e := el.Value.(*Entry)
		if e.Expired(t.ttl, now) {
			t.order.Remove(el)
			delete(t.index, e.ID)
			removed++
		}
		el = next
	}
	return removed
}

// Clear removes all entries and returns how many were removed.
func (t *Tracker) Clear() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.order.Len()
	t.order.Init()
	t.index = make(map[string]*list.Element)
	return n
}

// Len reports the number of entries, including any not yet pruned.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.Len()
}

// liveLocked resolves id to a live entry, dropping it when expired.
func (t *Tracker) liveLocked(id string) *Entry {
	el, ok := t.index[id]
	if !ok {
		return nil
	}
	e := el.Value.(*Entry)
	if e.Expired(t.ttl, t.now()) {
		t.order.Remove(el)
		delete(t.index, id)
		return nil
	}
	return e
}

// evictLocked enforces maxEntries by removing the oldest entries.
func (t *Tracker) evictLocked() {
	if t.maxEntries <= 0 {
		return
	}
	for t.order.Len() > t.maxEntries {
		el := t.order.Front()
		e := el.Value.(*Entry)
		t.order.Remove(el)
		delete(t.index, e.ID)
	}
}
