package app

import (
	"context"
	"errors"
	"time"

	"github.com/five82/pantry/internal/state"
)

// maxBackoff caps the retry delay after consecutive failures.
const maxBackoff = 30 * time.Second

// rotator is the part of state.Store the rotation poller drives.
type rotator interface {
	RefreshRandomMeal(ctx context.Context) error
}

// StartRotation requests a new random meal every interval until ctx is
// cancelled. While requests keep failing the delay doubles, up to maxBackoff
// or interval, whichever is larger. It returns immediately; the returned
// channel closes when the poller has stopped.
func StartRotation(ctx context.Context, store rotator, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if interval <= 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		timer := time.NewTimer(interval)
		defer timer.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			err := store.RefreshRandomMeal(ctx)
			switch {
			case ctx.Err() != nil, errors.Is(err, state.ErrClosed):
				return
			case err != nil:
				failures++
			default:
				failures = 0
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
	return done
}

// calculateBackoff returns the delay before the next request given the
// number of consecutive failures.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	limit := maxBackoff
	if base > limit {
		limit = base
	}
	delay := base
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay >= limit {
			return limit
		}
	}
	return delay
}
