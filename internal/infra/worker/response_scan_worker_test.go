package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/entity"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

type countingScanner struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (s *countingScanner) Scan(context.Context) (*usecase.ScanResponsesOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail {
		return nil, errors.New("imap down")
	}
	return &usecase.ScanResponsesOutput{Checked: 3, NewResponses: []entity.Response{{CoachEmail: "rc@alpha.edu"}}}, nil
}

func (s *countingScanner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// TestWorkerScansImmediatelyAndOnTick - first scan runs at start, not after one interval
func TestWorkerScansImmediatelyAndOnTick(t *testing.T) {
	scanner := &countingScanner{}
	w := NewResponseScanWorker(scanner, 20*time.Millisecond, zap.NewNop())

	var mu sync.Mutex
	found := 0
	w.OnScan = func(out *usecase.ScanResponsesOutput) {
		mu.Lock()
		found += len(out.NewResponses)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return scanner.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, found, 3)
}

func TestWorkerSurvivesScanErrors(t *testing.T) {
	scanner := &countingScanner{fail: true}
	w := NewResponseScanWorker(scanner, 10*time.Millisecond, zap.NewNop())
	w.OnScan = func(*usecase.ScanResponsesOutput) { t.Error("OnScan called on failure") }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	w.Start(ctx)

	assert.GreaterOrEqual(t, scanner.count(), 2)
}

func TestWorkerDefaultInterval(t *testing.T) {
	w := NewResponseScanWorker(&countingScanner{}, 0, zap.NewNop())
	assert.Equal(t, time.Hour, w.tickInterval)
}
