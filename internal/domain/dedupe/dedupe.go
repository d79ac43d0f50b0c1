// Package dedupe suppresses duplicate sample IDs so each sample is scored
// at most once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// defaultMaxSize bounds the remembered-ID window when no option overrides it.
const defaultMaxSize = 50000

// unboundedSlot marks an ID tracked without a ring slot.
const unboundedSlot = -1

// Deduper records seen sample IDs to ensure at-most-once scoring.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. Returns true if id was already seen, false if newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an ID so a sample can be retried. Intended for IDs
	// recorded just before an enqueue that was then rejected.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map over a fixed ring.
// Bounded mode (maxSize > 0) overwrites ring slots in insertion order, so
// the oldest remembered ID is evicted first. Unbounded mode (maxSize <= 0)
// keeps every ID.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> ring slot, or unboundedSlot
	ring    []string
	next    int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates an in-memory deduper with options applied.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}

	return d
}

// SeenAndRecord atomically checks whether id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		slot := d.next
		// The slot may still hold an older ID; evict it unless Unrecord
		// already released the slot or the ID moved on.
		if old := d.ring[slot]; old != "" {
			if held, ok := d.seen[old]; ok && held == slot {
				delete(d.seen, old)
				d.size.Add(-1)
			}
		}
		d.ring[slot] = id
		d.seen[id] = slot
		d.next = (slot + 1) % d.maxSize
	} else {
		d.seen[id] = unboundedSlot
	}

	d.size.Add(1)
	return false
}

// Unrecord forgets an ID so its sample can be submitted again.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if slot != unboundedSlot && d.ring[slot] == id {
		d.ring[slot] = ""
	}
	d.size.Add(-1)
}

// Size returns the current number of remembered IDs.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
