package browser

import (
	"context"
	"time"
)

// Evaluator is the slice of playwright.Page the scrolling helpers need.
type Evaluator interface {
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ScrollToBottom runs passes scroll-and-wait cycles to trigger lazy loading.
// onPass, if set, is called after each completed pass with its 1-based number.
func ScrollToBottom(ctx context.Context, page Evaluator, passes int, delay time.Duration, onPass func(int)) error {
	for i := 1; i <= passes; i++ {
		if _, err := page.Evaluate("window.scrollTo(0, document.body.scrollHeight)"); err != nil {
			return err
		}
		if err := Sleep(ctx, delay); err != nil {
			return err
		}
		if onPass != nil {
			onPass(i)
		}
	}
	return nil
}
