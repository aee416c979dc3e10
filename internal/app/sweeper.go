package app

import (
	"context"
	"log"
	"time"
)

const defaultSweepInterval = time.Minute

// Sweeper drops expired cache entries. *requests.Coordinator implements it.
type Sweeper interface {
	Sweep() int
}

// StartSweeper launches a background goroutine that sweeps expired cache
// entries at a fixed cadence until ctx is cancelled. It returns a channel
// that is closed once the goroutine has exited.
func StartSweeper(ctx context.Context, cache Sweeper, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := cache.Sweep(); n > 0 {
					log.Printf("cache sweep removed %d expired entries", n)
				}
			}
		}
	}()
	return done
}
