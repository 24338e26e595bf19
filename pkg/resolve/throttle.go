package resolve

import (
	"context"
	"sync"
	"time"
)

// Throttle spaces outbound directory calls so consecutive completions are at
// least one interval apart, across every concurrent lookup in the process.
type Throttle struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

// NewThrottle creates a throttle. A non-positive interval disables spacing.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Do waits out the remaining interval, runs fn, then records the completion
// time. The timestamp is taken after fn returns, so slow calls get the full
// interval of breathing room too. The lock is held for the duration of fn;
// callers are serialized.
func (t *Throttle) Do(ctx context.Context, fn func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.interval > 0 && !t.last.IsZero() {
		if wait := t.interval - time.Since(t.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	err := fn()
	t.last = time.Now()
	return err
}
