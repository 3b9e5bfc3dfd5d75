package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/coach-outreach/internal/usecase"
)

type responseScanner interface {
	Scan(ctx context.Context) (*usecase.ScanResponsesOutput, error)
}

// ResponseScanWorker checks the inbox for coach replies on a fixed interval.
type ResponseScanWorker struct {
	scanner      responseScanner
	tickInterval time.Duration
	logger       *zap.Logger
	// OnScan is called after every successful scan.
	OnScan func(out *usecase.ScanResponsesOutput)
}

func NewResponseScanWorker(scanner responseScanner, interval time.Duration, logger *zap.Logger) *ResponseScanWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ResponseScanWorker{
		scanner:      scanner,
		tickInterval: interval,
		logger:       logger.Named("response-scan"),
	}
}

// Start scans once immediately, then on every tick until ctx is done.
func (w *ResponseScanWorker) Start(ctx context.Context) {
	w.logger.Info("response scan worker started", zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("response scan worker stopped")
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *ResponseScanWorker) scan(ctx context.Context) {
	out, err := w.scanner.Scan(ctx)
	if err != nil {
		w.logger.Error("response scan failed", zap.Error(err), zap.String("code", usecase.ErrorCode(err)))
		return
	}
	if len(out.NewResponses) > 0 {
		w.logger.Info("new responses recorded",
			zap.Int("responses", len(out.NewResponses)),
			zap.Int("rows_updated", out.RowsUpdated),
		)
	}
	if w.OnScan != nil {
		w.OnScan(out)
	}
}
