package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/rollcall/internal/store"
)

// Retry bounds how often a unit of work is re-run after a transient
// storage failure.
type Retry struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff is the pause after the first failed attempt. The pause grows
	// linearly: attempt n waits n*Backoff.
	Backoff time.Duration
}

// DefaultRetry makes three attempts with a short linear backoff.
var DefaultRetry = Retry{MaxAttempts: 3, Backoff: 250 * time.Millisecond}

// withRetry runs fn until it succeeds, fails with a non-transient error, or
// the attempt budget is spent. Exhaustion is reported as
// ErrCodeStorageUnavailable wrapping the last transient error.
func withRetry(ctx context.Context, r Retry, logger *slog.Logger, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		err = fn()
		if err == nil || !store.IsTransient(err) {
			return err
		}
		if attempt == r.MaxAttempts {
			break
		}
		logger.Warn("transient storage failure, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", r.MaxAttempts,
			"error", err,
		)
		if serr := sleep(ctx, time.Duration(attempt)*r.Backoff); serr != nil {
			return serr
		}
	}
	logger.Error("storage unavailable", "op", op, "max_attempts", r.MaxAttempts, "error", err)
	return &Error{
		Code:    ErrCodeStorageUnavailable,
		Message: fmt.Sprintf("%s: gave up after %d attempts", op, r.MaxAttempts),
		Err:     err,
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
