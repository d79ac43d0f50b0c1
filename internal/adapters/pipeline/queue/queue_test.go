package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/lucid/internal/domain/model"
)

func sample(id string, speed float64) model.Sample {
	return model.Sample{
		ID:     id,
		Record: model.FeatureRecord{model.MetricTypingSpeed: speed},
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	// Test empty queue
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Capacity(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	// Test enqueue
	if !q.Enqueue(ctx, sample("sample1", 65)) {
		t.Error("expected enqueue to succeed")
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	// Test dequeue
	sampleChan := q.Dequeue(ctx)
	s := <-sampleChan
	if s.ID != "sample1" {
		t.Errorf("expected sample1, got %v", s.ID)
	}
	if s.Record[model.MetricTypingSpeed] != 65 {
		t.Errorf("expected typing speed 65, got %v", s.Record[model.MetricTypingSpeed])
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, sample("sample1", 65)) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, sample("sample2", 55)) {
		t.Error("expected enqueue to succeed")
	}

	// Try to enqueue when full
	if q.Enqueue(ctx, sample("sample3", 45)) {
		t.Error("expected enqueue to fail when full")
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	numGoroutines := 10
	numSamples := 100

	// Start producer goroutines
	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < numSamples; j++ {
				s := sample(fmt.Sprintf("sample%d_%d", id, j), float64(j))
				for !q.Enqueue(ctx, s) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}(i)
	}

	// Start consumer goroutines
	consumed := make(chan string, numGoroutines*numSamples)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			sampleChan := q.Dequeue(ctx)
			for s := range sampleChan {
				consumed <- s.ID
			}
		}()
	}

	// Wait for producers to finish
	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	// Wait a bit for consumers to process
	time.Sleep(100 * time.Millisecond)

	// Check final queue length
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, sample("sample1", 65)) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, sample("sample2", 55)) {
		t.Error("expected enqueue to succeed")
	}

	// Check initial state
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	// Close the queue
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}

	// Check closed state
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	// Try to enqueue after closing (should fail)
	if q.Enqueue(ctx, sample("sample3", 45)) {
		t.Error("expected enqueue to fail after closing")
	}

	// Dequeue channel drains remaining samples, then closes
	sampleChan := q.Dequeue(ctx)

	drained := 0
	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case _, ok := <-sampleChan:
			if !ok {
				if drained != 2 {
					t.Errorf("expected 2 drained samples, got %d", drained)
				}
				// Close again should not error
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained++
		case <-timeout:
			t.Error("expected dequeue channel to be closed within timeout")
			return
		}
	}
}
