package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/monitoring/health"
)

// Runner is the scheduler entry point: it checks every configured node.
type Runner struct {
	monitors []*NodeMonitor
	report   *health.Monitor
	log      *slog.Logger
}

// NewRunner creates a runner over the given node monitors.
func NewRunner(monitors []*NodeMonitor, report *health.Monitor, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		monitors: monitors,
		report:   report,
		log:      log,
	}
}

// Monitors returns the node monitors in configuration order.
func (r *Runner) Monitors() []*NodeMonitor {
	return r.monitors
}

// RunAll checks every node concurrently. A slow or failing node never holds
// back another one.
func (r *Runner) RunAll(ctx context.Context) (string, []domain.CheckOutcome) {
	runID := uuid.NewString()
	log := r.log.With("run_id", runID)
	start := time.Now()

	results := make([][]domain.CheckOutcome, len(r.monitors))

	var g errgroup.Group
	for i, m := range r.monitors {
		g.Go(func() error {
			results[i] = m.Run(ctx)
			return nil
		})
	}
	g.Wait()

	var outcomes []domain.CheckOutcome
	failed := 0
	for _, res := range results {
		for _, o := range res {
			if !o.OK() {
				failed++
			}
		}
		outcomes = append(outcomes, res...)
	}

	if r.report != nil {
		r.report.Record(runID, outcomes)
	}

	log.Info("Health checks completed",
		"nodes", len(r.monitors),
		"checks", len(outcomes),
		"not_passing", failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return runID, outcomes
}
