package api

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiter_SpacesCalls(t *testing.T) {
	const interval = 20 * time.Millisecond
	l := NewLimiter(interval)
	ctx := context.Background()

	var last time.Time
	for i := 0; i < 4; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		now := time.Now()
		if i > 0 {
			if spacing := now.Sub(last); spacing < interval-time.Millisecond {
				t.Errorf("call %d spacing = %v, want >= %v", i, spacing, interval)
			}
		}
		last = now
	}
}

func TestLimiter_ConcurrentCallersBoundedWait(t *testing.T) {
	const (
		interval = 15 * time.Millisecond
		callers  = 5
	)
	l := NewLimiter(interval)
	ctx := context.Background()

	start := time.Now()
	var (
		mu    sync.Mutex
		times []time.Time
		wg    sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Wait(ctx); err != nil {
				t.Errorf("Wait() error = %v", err)
				return
			}
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(times) != callers {
		t.Fatalf("completed = %d, want %d", len(times), callers)
	}

	// One slot per interval: total elapsed ~ (N-1) * interval, not N^2.
	elapsed := time.Since(start)
	if want := (callers - 1) * int(interval); elapsed < time.Duration(want)-2*time.Millisecond {
		t.Errorf("elapsed = %v, want >= %v", elapsed, time.Duration(want))
	}
	if max := time.Duration(2*callers) * interval; elapsed > max {
		t.Errorf("elapsed = %v, want <= %v (no starvation)", elapsed, max)
	}
}

func TestLimiter_DisabledPassesThrough(t *testing.T) {
	l := NewLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("disabled limiter blocked for %v", elapsed)
	}
}

func TestLimiter_WaitHonorsCancellation(t *testing.T) {
	l := NewLimiter(time.Hour)
	ctx := context.Background()

	// Consume the initial slot.
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("Wait() = nil, want context error")
	}
}
