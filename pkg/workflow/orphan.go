package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
)

// sweep periodically requeues tasks whose heartbeat has gone stale — a
// worker that crashed or was killed mid-task leaves its claim behind,
// otherwise stalling the whole downstream branch forever. Grounded on the
// teacher's pkg/queue orphan detector, adapted from AlertSession rows to
// WorkflowTask rows.
func sweep(ctx context.Context, ws *store.WorkflowStore, cfg *config.QueueConfig, stopCh chan struct{}) {
	interval := cfg.OrphanDetectionInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			runSweepOnce(ctx, ws, cfg.OrphanThreshold)
		}
	}
}

func runSweepOnce(ctx context.Context, ws *store.WorkflowStore, threshold time.Duration) {
	if threshold <= 0 {
		threshold = 5 * time.Minute
	}
	orphans, err := ws.ListOrphanedTasks(ctx, threshold)
	if err != nil {
		slog.Error("orphan scan failed", "error", err)
		return
	}
	if len(orphans) == 0 {
		return
	}
	slog.Warn("recovering orphaned workflow tasks", "count", len(orphans))
	for _, t := range orphans {
		if err := ws.FailTask(ctx, t.ID, "orphaned: heartbeat stale, requeued by orphan sweep", true); err != nil {
			slog.Error("failed to requeue orphaned task", "task_id", t.ID, "name", t.Name, "error", err)
		}
	}
}
