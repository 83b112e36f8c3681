package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
)

// WorkerPool manages a fixed-size group of Workers plus the background
// orphan-detection sweep, grounded on the teacher's pkg/queue.WorkerPool.
type WorkerPool struct {
	podID   string
	store   *store.WorkflowStore
	cfg     *config.QueueConfig
	engine  *Engine
	workers []*Worker

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool
}

// NewWorkerPool creates a WorkerPool.
func NewWorkerPool(podID string, ws *store.WorkflowStore, cfg *config.QueueConfig, engine *Engine) *WorkerPool {
	return &WorkerPool{
		podID:  podID,
		store:  ws,
		cfg:    cfg,
		engine: engine,
		stopCh: make(chan struct{}),
	}
}

// Start spawns cfg.WorkerCount workers and the orphan-detection loop. Safe
// to call once; subsequent calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) {
	if p.started {
		return
	}
	p.started = true

	slog.Info("starting workflow worker pool", "pod_id", p.podID, "worker_count", p.cfg.WorkerCount)
	for i := 0; i < p.cfg.WorkerCount; i++ {
		w := NewWorker(fmt.Sprintf("%s-workflow-%d", p.podID, i), p.store, p.cfg, p.engine)
		p.workers = append(p.workers, w)
		w.Start(ctx)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runOrphanSweep(ctx)
	}()
}

// Stop signals every worker and the orphan sweep to stop and waits for them
// to finish their current task.
func (p *WorkerPool) Stop() {
	slog.Info("stopping workflow worker pool")
	for _, w := range p.workers {
		w.Stop()
	}
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	slog.Info("workflow worker pool stopped")
}

func (p *WorkerPool) runOrphanSweep(ctx context.Context) {
	sweep(ctx, p.store, p.cfg, p.stopCh)
}
