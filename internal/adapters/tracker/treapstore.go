package tracker

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/lucid/internal/domain/model"
	"github.com/okian/lucid/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score ASC, then sample ID ASC (deterministic). In-order
// traversal walks the window from least to most fatigued, and subtree
// sizes answer "how many scores fall strictly below X" in O(log n),
// which is all the percentile query needs.
//
// The window is bounded: sample IDs enter a FIFO ring on first record,
// and when the ring is full the oldest sample is evicted to make room.

// Default window configuration.
const (
	defaultWindowSize      = 10_000
	defaultMetricsInterval = 5 * time.Second
)

// treap node
type node struct {
	id    string
	score float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID)
// in the window ordering (lower scores first).
func less(aScore float64, aID string, bScore float64, bID string) bool {
	if aScore != bScore {
		return aScore < bScore
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score float64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: rand.Uint64(), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score float64) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		// Merge children by rotating highest priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countBelow returns the number of entries whose score is strictly below
// the given score, using subtree sizes for an O(log n) walk.
func countBelow(n *node, score float64) int {
	count := 0
	for n != nil {
		if n.score < score {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

func minNode(n *node) *node {
	for n != nil && n.left != nil {
		n = n.left
	}
	return n
}

func maxNode(n *node) *node {
	for n != nil && n.right != nil {
		n = n.right
	}
	return n
}

// sanitizeScore maps NaN to zero; NaN keys cannot be ordered or deleted.
func sanitizeScore(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return score
}

type TreapStore struct {
	mu         sync.RWMutex
	root       *node
	byID       map[string]Entry
	ring       []string // insertion order of the IDs in byID
	next       int
	sum        float64 // running sum of windowed scores
	windowSize int

	metricsInterval time.Duration

	// Background metrics management
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewTreapStore constructs a treap-backed window with configuration options.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		windowSize:      defaultWindowSize,
		metricsInterval: defaultMetricsInterval,
		byID:            make(map[string]Entry),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.ring = make([]string, 0, s.windowSize)

	// Initialize stop channel and start the metrics goroutine
	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)

	return s
}

// Close gracefully shuts down the background metrics goroutine.
func (s *TreapStore) Close() error {
	select {
	case <-s.stopChan:
		// Channel already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Record implements Store.Record with O(log n) expected time.
func (s *TreapStore) Record(ctx context.Context, id string, res model.FatigueResult) error {
	start := time.Now()
	defer func() {
		metrics.RecordTrackerRecordLatency(float64(time.Since(start).Milliseconds()))
	}()

	score := sanitizeScore(res.OverallScore)
	entry := Entry{ID: id, Result: res, ScoredAt: time.Now()}
	evicted := false

	s.mu.Lock()
	if old, ok := s.byID[id]; ok {
		// Replace in place: the sample keeps its window position.
		oldScore := sanitizeScore(old.Result.OverallScore)
		s.root = deleteNode(s.root, id, oldScore)
		s.sum -= oldScore
	} else if len(s.ring) < s.windowSize {
		s.ring = append(s.ring, id)
	} else {
		oldest := s.ring[s.next]
		if victim, ok := s.byID[oldest]; ok {
			victimScore := sanitizeScore(victim.Result.OverallScore)
			s.root = deleteNode(s.root, oldest, victimScore)
			s.sum -= victimScore
			delete(s.byID, oldest)
			evicted = true
		}
		s.ring[s.next] = id
		s.next = (s.next + 1) % s.windowSize
	}
	s.byID[id] = entry
	s.root = insert(s.root, id, score)
	s.sum += score
	s.mu.Unlock()

	if evicted {
		metrics.RecordTrackerEviction()
	}
	return nil
}

// Get returns the stored entry for a sample in O(1).
func (s *TreapStore) Get(ctx context.Context, id string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordTrackerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("tracker", "not_found")
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// Percentile reports the percentage of windowed scores strictly below the
// given score in O(log n).
func (s *TreapStore) Percentile(ctx context.Context, score float64) (float64, bool) {
	start := time.Now()
	defer func() {
		metrics.RecordTrackerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.byID)
	if total == 0 {
		return 0, false
	}
	below := countBelow(s.root, score)
	return float64(below) / float64(total) * 100, true
}

// Summary returns count, mean, min and max over the current window. The
// treap extremes give min and max without a full walk.
func (s *TreapStore) Summary(ctx context.Context) Summary {
	start := time.Now()
	defer func() {
		metrics.RecordTrackerQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := len(s.byID)
	if count == 0 {
		return Summary{}
	}
	return Summary{
		Count: count,
		Mean:  s.sum / float64(count),
		Min:   minNode(s.root).score,
		Max:   maxNode(s.root).score,
	}
}

// Count returns the number of samples in the window.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// startMetricsUpdater starts a background goroutine that updates window metrics.
func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

// updateMetrics refreshes the window size gauge.
func (s *TreapStore) updateMetrics() {
	s.mu.RLock()
	size := len(s.byID)
	s.mu.RUnlock()

	metrics.UpdateTrackerSize(size)
}
