package clock

import (
	"sync"
	"testing"
	"time"
)

func TestMonotonicStrictlyIncreases(t *testing.T) {
	c := NewMonotonic()

	prev := c.Now()
	for i := 0; i < 10000; i++ {
		next := c.Now()
		if !next.After(prev) {
			t.Fatalf("call %d: %v is not after %v", i, next, prev)
		}
		prev = next
	}
}

func TestMonotonicMicrosecondPrecision(t *testing.T) {
	c := NewMonotonic()

	now := c.Now()
	if got := now.Truncate(time.Microsecond); !got.Equal(now) {
		t.Fatalf("expected microsecond precision, got %v", now)
	}
	if now.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", now.Location())
	}
}

func TestMonotonicTracksWallClock(t *testing.T) {
	c := NewMonotonic()

	before := time.Now().UTC().Add(-time.Second)
	got := c.Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Before(before) || got.After(after) {
		t.Fatalf("clock drifted from wall time: got %v, window [%v, %v]", got, before, after)
	}
}

func TestMonotonicUnixMicroRoundTrip(t *testing.T) {
	c := NewMonotonic()

	now := c.Now()
	back := time.UnixMicro(now.UnixMicro()).UTC()
	if !back.Equal(now) {
		t.Fatalf("unix micro round trip changed value: %v != %v", back, now)
	}
}

func TestMonotonicConcurrentCallsDistinct(t *testing.T) {
	c := NewMonotonic()

	const workers = 8
	const perWorker = 2000

	var mu sync.Mutex
	seen := make(map[int64]bool, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				us := c.Now().UnixMicro()
				mu.Lock()
				dup := seen[us]
				seen[us] = true
				mu.Unlock()
				if dup {
					t.Errorf("duplicate timestamp %d", us)
					return
				}
			}
		}()
	}
	wg.Wait()
}
