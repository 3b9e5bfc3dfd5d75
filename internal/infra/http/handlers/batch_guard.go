package handlers

import (
	"sync"

	"github.com/xavierca1/coach-outreach/internal/usecase"
)

// BatchGuard allows one send batch at a time so two requests never race on
// the same sheet rows or the daily quota.
type BatchGuard struct {
	mu sync.Mutex
}

func (g *BatchGuard) Acquire() (release func(), err error) {
	if !g.mu.TryLock() {
		return nil, &usecase.DomainError{Code: usecase.CodeBatchRunning, Message: "another outreach batch is already running"}
	}
	return g.mu.Unlock, nil
}
