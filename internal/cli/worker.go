package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/coach-outreach/internal/app"
	"github.com/xavierca1/coach-outreach/internal/infra/http/middleware"
	"github.com/xavierca1/coach-outreach/internal/infra/queue"
	"github.com/xavierca1/coach-outreach/internal/infra/worker"
	"github.com/xavierca1/coach-outreach/internal/usecase"
)

func WorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Scan for responses periodically and drain the log queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return RunWorkers(ctx, a)
			})
		},
	}
}

// RunWorkers blocks until ctx is cancelled.
func RunWorkers(ctx context.Context, a *app.App) error {
	g, ctx := errgroup.WithContext(ctx)

	scan := worker.NewResponseScanWorker(a.Responses, a.Config.Worker.ScanInterval(), a.Logger)
	scan.OnScan = func(out *usecase.ScanResponsesOutput) {
		middleware.RecordResponses(len(out.NewResponses))
	}
	g.Go(func() error {
		scan.Start(ctx)
		return nil
	})

	if a.MQ != nil {
		consumer := queue.NewWorker(a.MQ.Ch, a.Repo, a.Logger)
		g.Go(func() error {
			return consumer.Start(ctx)
		})
	} else {
		a.Logger.Info("queue disabled, log entries are written directly")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
