package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	for _, items := range []int{1, 2, 7, 100, 1000} {
		seen := make([]int32, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, count := range seen {
			if count != 1 {
				t.Errorf("items=%d: index %d visited %d times, want 1", items, i, count)
			}
		}
	}
}

func TestParallelizeZeroItems(t *testing.T) {
	called := false
	Parallelize(0, func(start, end int) {
		called = true
	})
	if called {
		t.Error("fn called for zero items")
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	// Below threshold the work runs in a single sequential chunk
	var calls int32
	ParallelizeWithThreshold(5, 10, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		if start != 0 || end != 5 {
			t.Errorf("sequential chunk = (%d,%d), want (0,5)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("sequential path made %d calls, want 1", calls)
	}

	// Above threshold every item is still covered exactly once
	seen := make([]int32, 100)
	ParallelizeWithThreshold(100, 10, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})
	for i, count := range seen {
		if count != 1 {
			t.Errorf("index %d visited %d times, want 1", i, count)
		}
	}
}
