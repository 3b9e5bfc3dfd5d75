package sheets

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// Retrier spaces out Sheets calls and retries failed ones. Rate-limit errors
// back off exponentially; anything else waits a flat BaseDelay.
type Retrier struct {
	MaxRetries int
	BaseDelay  time.Duration
	MinGap     time.Duration
	Logger     *zap.Logger

	// OnRetry is called before each retry wait.
	OnRetry func(op string, rateLimited bool)

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewRetrier(maxRetries int, baseDelay, minGap time.Duration, logger *zap.Logger) *Retrier {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &Retrier{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		MinGap:     minGap,
		Logger:     logger,
		sleep:      sleepCtx,
		now:        time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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

// Do runs fn until it succeeds, returns a permanent error, or runs out of
// attempts. The last error is returned.
func (r *Retrier) Do(ctx context.Context, op string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < r.MaxRetries; attempt++ {
		if err := r.wait(ctx); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || !retryable(lastErr) || attempt == r.MaxRetries-1 {
			break
		}

		limited := rateLimited(lastErr)
		delay := r.BaseDelay
		if limited {
			delay = r.BaseDelay * time.Duration(1<<attempt)
		}
		r.Logger.Warn("sheets call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Bool("rate_limited", limited),
			zap.Duration("wait", delay),
			zap.Error(lastErr),
		)
		if r.OnRetry != nil {
			r.OnRetry(op, limited)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return lastErr
		}
	}
	return lastErr
}

// wait enforces MinGap between the start of consecutive calls.
func (r *Retrier) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() {
		if gap := r.MinGap - r.now().Sub(r.last); gap > 0 {
			if err := r.sleep(ctx, gap); err != nil {
				return err
			}
		}
	}
	r.last = r.now()
	return nil
}

func rateLimited(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota")
}

// retryable is false for request errors that will never succeed.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return false
		}
	}
	return true
}
