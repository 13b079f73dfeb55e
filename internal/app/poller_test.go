package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/pantry/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestCalculateBackoff_LongIntervalIsNotShortened(t *testing.T) {
	base := time.Minute
	for failures := 0; failures <= 5; failures++ {
		if got := calculateBackoff(failures, base); got != base {
			t.Errorf("calculateBackoff(%d, %v) = %v, want %v", failures, base, got, base)
		}
	}
}

type fakeRotator struct {
	mu    sync.Mutex
	calls []time.Time
	errs  []error
}

func (f *fakeRotator) RefreshRandomMeal(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, time.Now())
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	if len(f.errs) > 1 {
		f.errs = f.errs[1:]
	}
	return err
}

func (f *fakeRotator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRotator) times() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.calls...)
}

func waitForCalls(t *testing.T, f *fakeRotator, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("rotation made %d requests, want at least %d", f.count(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartRotation_RequestsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fake := &fakeRotator{}

	done := StartRotation(ctx, fake, 5*time.Millisecond)

	waitForCalls(t, fake, 3)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rotation did not stop after cancel")
	}

	stopped := fake.count()
	time.Sleep(20 * time.Millisecond)
	if got := fake.count(); got != stopped {
		t.Fatalf("requests after stop = %d, want %d", got, stopped)
	}
}

func TestStartRotation_DisabledForZeroInterval(t *testing.T) {
	fake := &fakeRotator{}
	done := StartRotation(context.Background(), fake, 0)

	select {
	case <-done:
	default:
		t.Fatal("disabled rotation should report done immediately")
	}
	if got := fake.count(); got != 0 {
		t.Fatalf("requests = %d, want 0", got)
	}
}

func TestStartRotation_BacksOffOnTheFailureJustSeen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interval := 5 * time.Millisecond
	fake := &fakeRotator{errs: []error{errors.New("timeout")}}

	done := StartRotation(ctx, fake, interval)
	waitForCalls(t, fake, 3)
	cancel()
	<-done

	calls := fake.times()
	// The first failure doubles the very next delay.
	if gap := calls[1].Sub(calls[0]); gap < calculateBackoff(1, interval) {
		t.Errorf("delay after first failure = %v, want at least %v", gap, calculateBackoff(1, interval))
	}
	if gap := calls[2].Sub(calls[1]); gap < calculateBackoff(2, interval) {
		t.Errorf("delay after second failure = %v, want at least %v", gap, calculateBackoff(2, interval))
	}
}

func TestStartRotation_StopsWhenStoreCloses(t *testing.T) {
	fake := &fakeRotator{errs: []error{state.ErrClosed}}
	done := StartRotation(context.Background(), fake, time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rotation kept running after the store closed")
	}
	if got := fake.count(); got != 1 {
		t.Fatalf("requests = %d, want 1", got)
	}
}
