package sheets

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

func testRetrier(max int) (*Retrier, *[]time.Duration) {
	var waits []time.Duration
	r := NewRetrier(max, time.Second, 0, zap.NewNop())
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return r, &waits
}

// TestRetrierBacksOffOnRateLimit - 429s double the wait each attempt
func TestRetrierBacksOffOnRateLimit(t *testing.T) {
	r, waits := testRetrier(5)
	retries := 0
	r.OnRetry = func(op string, limited bool) {
		assert.True(t, limited)
		retries++
	}

	calls := 0
	err := r.Do(context.Background(), "read", func() error {
		calls++
		if calls < 4 {
			return &googleapi.Error{Code: http.StatusTooManyRequests, Message: "Quota exceeded"}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 3, retries)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, *waits)
}

func TestRetrierFlatDelayForOtherErrors(t *testing.T) {
	r, waits := testRetrier(3)
	boom := errors.New("connection reset")

	err := r.Do(context.Background(), "update", func() error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, *waits)
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r, waits := testRetrier(5)
	calls := 0

	err := r.Do(context.Background(), "read", func() error {
		calls++
		return &googleapi.Error{Code: http.StatusForbidden, Message: "caller does not have permission"}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestRetrierEnforcesMinGap(t *testing.T) {
	r, waits := testRetrier(1)
	r.MinGap = 500 * time.Millisecond
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	ok := func() error { return nil }
	assert.NoError(t, r.Do(context.Background(), "a", ok))
	now = now.Add(200 * time.Millisecond)
	assert.NoError(t, r.Do(context.Background(), "b", ok))

	assert.Equal(t, []time.Duration{300 * time.Millisecond}, *waits)
}

func TestRateLimitedByMessage(t *testing.T) {
	assert.True(t, rateLimited(errors.New("googleapi: Error 429: Too Many Requests")))
	assert.True(t, rateLimited(errors.New("Quota exceeded for quota metric")))
	assert.False(t, rateLimited(errors.New("not found")))
}
