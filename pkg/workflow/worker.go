package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/retry"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
)

// WorkerStatus mirrors the teacher's queue worker health states.
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// Worker polls WorkflowStore for the next claimable DAG task and runs it
// through an Engine. Grounded on pkg/queue/worker.go's poll-claim-execute
// loop, generalized from a flat session queue to a DAG of typed tasks.
type Worker struct {
	id      string
	store   *store.WorkflowStore
	cfg     *config.QueueConfig
	engine  *Engine
	stopCh  chan struct{}
	stopOne sync.Once
	wg      sync.WaitGroup

	mu           sync.RWMutex
	status       WorkerStatus
	currentTask  string
	tasksHandled int
}

// NewWorker builds a Worker.
func NewWorker(id string, ws *store.WorkflowStore, cfg *config.QueueConfig, engine *Engine) *Worker {
	return &Worker{
		id:     id,
		store:  ws,
		cfg:    cfg,
		engine: engine,
		stopCh: make(chan struct{}),
		status: WorkerStatusIdle,
	}
}

// Start begins the worker's poll loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop after its current task and waits.
func (w *Worker) Stop() {
	w.stopOne.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	log := slog.With("worker_id", w.id)
	log.Info("workflow worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("workflow worker shutting down")
			return
		case <-ctx.Done():
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, store.ErrNoTaskAvailable) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("error processing workflow task", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

func (w *Worker) pollInterval() time.Duration {
	base := w.cfg.PollInterval
	jitter := w.cfg.PollIntervalJitter
	if jitter <= 0 {
		return base
	}
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

// pollAndProcess claims the next ready task, runs it, and records its
// terminal state.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	task, err := w.store.ClaimNextTask(ctx, w.id)
	if err != nil {
		return err
	}

	log := slog.With("worker_id", w.id, "task", task.Name, "workflow_run_id", task.WorkflowRunID)
	log.Info("workflow task claimed")

	w.setStatus(WorkerStatusWorking, task.Name)
	defer w.setStatus(WorkerStatusIdle, "")

	heartbeatCtx, cancelHeartbeat := context.WithCancel(ctx)
	go w.runHeartbeat(heartbeatCtx, task.ID)
	defer cancelHeartbeat()

	run, err := w.store.GetRun(ctx, task.WorkflowRunID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", task.WorkflowRunID, err)
	}

	policy, polErr := w.engine.PolicyFor(task)
	maxAttempts := 3
	if polErr == nil {
		maxAttempts = policy.MaxAttempts
	}

	outputRef, execErr := w.engine.Execute(ctx, run, task)
	cancelHeartbeat()

	if execErr == nil {
		if err := w.store.CompleteTask(context.Background(), task.ID, outputRef); err != nil {
			return fmt.Errorf("complete task %s: %w", task.Name, err)
		}
		if err := w.engine.OnTaskCompleted(context.Background(), run, task); err != nil {
			log.Warn("fan-in update failed", "error", err)
		}
		w.engine.PublishSnapshot(context.Background(), run)
		w.bumpHandled()
		log.Info("workflow task completed")
		return nil
	}

	requeue := !retry.IsPermanent(execErr) && task.Attempt < maxAttempts
	if err := w.store.FailTask(context.Background(), task.ID, execErr.Error(), requeue); err != nil {
		return fmt.Errorf("fail task %s: %w", task.Name, err)
	}
	if !requeue {
		if err := w.store.UpdateRunStatus(context.Background(), run.ID, models.RunStatusFailed); err != nil {
			log.Warn("failed to mark run failed", "error", err)
		}
	}
	w.engine.PublishSnapshot(context.Background(), run)
	log.Error("workflow task failed", "error", execErr, "requeue", requeue)
	return nil
}

func (w *Worker) runHeartbeat(ctx context.Context, taskID int64) {
	interval := w.cfg.HeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.Heartbeat(ctx, taskID); err != nil {
				slog.Warn("workflow task heartbeat failed", "task_id", taskID, "error", err)
			}
		}
	}
}

func (w *Worker) setStatus(status WorkerStatus, taskName string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentTask = taskName
}

func (w *Worker) bumpHandled() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tasksHandled++
}

// Health reports the worker's current status for the pool health endpoint.
func (w *Worker) Health() (status WorkerStatus, currentTask string, handled int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status, w.currentTask, w.tasksHandled
}
