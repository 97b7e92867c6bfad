package browser

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is returned by Poll when the condition never held.
var ErrWaitTimeout = errors.New("wait timed out")

// Poll evaluates cond every interval until it reports true, returns an error,
// or timeout elapses. The condition is always checked at least once.
func Poll(ctx context.Context, timeout, interval time.Duration, cond func() (bool, error)) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			// one last look so a condition met right at the deadline still counts
			if ok, err := cond(); err == nil && ok {
				return nil
			}
			return ErrWaitTimeout
		case <-ticker.C:
		}
	}
}
