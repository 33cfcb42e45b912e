package maintenance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
)

type CleanupSuspensionsJobArgs struct{}

func (CleanupSuspensionsJobArgs) Kind() string { return "cleanup_expired_suspensions" }

// SuspensionSweeper is the slice of the suspension manager the worker needs.
type SuspensionSweeper interface {
	CleanupExpiredSuspensions(ctx context.Context) (int64, error)
}

// CleanupSuspensionsWorker runs the batch expiry sweep. It complements lazy
// expiry on read: agents nobody queries still get their ACTIVE records
// closed on schedule.
type CleanupSuspensionsWorker struct {
	river.WorkerDefaults[CleanupSuspensionsJobArgs]
	sweeper SuspensionSweeper
	logger  *slog.Logger
}

func NewCleanupSuspensionsWorker(sweeper SuspensionSweeper, logger *slog.Logger) *CleanupSuspensionsWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupSuspensionsWorker{sweeper: sweeper, logger: logger}
}

func (w *CleanupSuspensionsWorker) Work(ctx context.Context, job *river.Job[CleanupSuspensionsJobArgs]) error {
	n, err := w.sweeper.CleanupExpiredSuspensions(ctx)
	if err != nil {
		return fmt.Errorf("suspension sweep: %w", err)
	}
	if n > 0 {
		w.logger.Info("suspension sweep expired records", "count", n)
	}
	return nil
}
