package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEachVisitsEveryItem(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	var mu sync.Mutex
	seen := make(map[int]bool)

	err := Each(context.Background(), items, 3, func(_ context.Context, n int) {
		mu.Lock()
		seen[n] = true
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Each() error = %v", err)
	}
	if len(seen) != len(items) {
		t.Errorf("visited %d items, want %d", len(seen), len(items))
	}
}

func TestEachRespectsLimit(t *testing.T) {
	items := make([]int, 20)

	var running, peak atomic.Int32
	err := Each(context.Background(), items, 2, func(_ context.Context, _ int) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
	})
	if err != nil {
		t.Fatalf("Each() error = %v", err)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestEachStopsOnCancel(t *testing.T) {
	items := make([]int, 100)
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	err := Each(ctx, items, 1, func(_ context.Context, _ int) {
		if calls.Add(1) == 3 {
			cancel()
		}
	})

	if err != context.Canceled {
		t.Errorf("Each() error = %v, want context.Canceled", err)
	}
	if got := calls.Load(); got >= int32(len(items)) {
		t.Errorf("all %d items ran despite cancellation", got)
	}
}

func TestEachZeroLimit(t *testing.T) {
	var calls atomic.Int32
	if err := Each(context.Background(), []string{"a", "b"}, 0, func(_ context.Context, _ string) {
		calls.Add(1)
	}); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}
