package resilience

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestGate_EnforcesMinimumInterval(t *testing.T) {
	g := NewGate(40 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := g.Wait(ctx); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	// First call is immediate; the next two wait one interval each.
	if elapsed := time.Since(start); elapsed < 75*time.Millisecond {
		t.Errorf("expected at least ~80ms across three calls, got %v", elapsed)
	}
}

func TestGate_ConcurrentCallersSerialize(t *testing.T) {
	g := NewGate(30 * time.Millisecond)
	ctx := context.Background()

	var mu sync.Mutex
	var admitted []time.Time
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Wait(ctx); err != nil {
				t.Errorf("wait: %v", err)
				return
			}
			mu.Lock()
			admitted = append(admitted, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(admitted) != 4 {
		t.Fatalf("expected 4 admissions, got %d", len(admitted))
	}
	first, last := admitted[0], admitted[0]
	for _, at := range admitted {
		if at.Before(first) {
			first = at
		}
		if at.After(last) {
			last = at
		}
	}
	if spread := last.Sub(first); spread < 80*time.Millisecond {
		t.Errorf("expected admissions spread over ~90ms, got %v", spread)
	}
}

func TestGate_CancelledContext(t *testing.T) {
	g := NewGate(time.Hour)
	ctx := context.Background()
	if err := g.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := g.Wait(cctx); err == nil {
		t.Fatal("expected error when cooldown exceeds context deadline")
	}
}

func TestGate_Disabled(t *testing.T) {
	g := NewGate(0)
	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := g.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("disabled gate should not block")
	}
	if g.Interval() != 0 {
		t.Errorf("expected zero interval, got %v", g.Interval())
	}
}
