package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/events"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/retry"
	"github.com/codeready-toolchain/meetingscribe/pkg/telemetry"
)

// Engine dispatches a claimed WorkflowTask to its handler, enforcing the
// task's configured timeout and retry policy (config.TaskPolicyRegistry),
// and broadcasting a DAG_STATUS snapshot on every state change (C9).
// Grounded on the teacher's pkg/queue.Worker.pollAndProcess, generalized
// from one fixed executor to a per-task-type handler table.
type Engine struct {
	deps     *Dependencies
	policies *config.TaskPolicyRegistry
}

// NewEngine builds an Engine.
func NewEngine(deps *Dependencies, policies *config.TaskPolicyRegistry) *Engine {
	return &Engine{deps: deps, policies: policies}
}

// PolicyFor resolves task's retry/timeout policy, falling back to the
// registry default for any task name (including a fan-out node's bare
// type) without an explicit entry.
func (e *Engine) PolicyFor(task *models.WorkflowTask) (*config.TaskPolicyConfig, error) {
	return e.policies.Get(taskType(task.Name))
}

// Execute runs task's handler under its configured timeout, retrying
// transient failures per its policy. The returned error, if any, is
// suitable for WorkflowStore.FailTask's error column.
func (e *Engine) Execute(ctx context.Context, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	tt := taskType(task.Name)

	handler, ok := handlers[tt]
	if !ok {
		return "", retry.Permanent(fmt.Errorf("no handler registered for task type %q", tt))
	}

	policy, err := e.PolicyFor(task)
	if err != nil {
		return "", fmt.Errorf("resolve task policy: %w", err)
	}

	timeout := policy.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	taskCtx, span := telemetry.StartTaskSpan(taskCtx, string(tt), task.Name)
	started := time.Now()

	var outputRef string
	retryPolicy := retry.Policy{
		MaxAttempts:     policy.MaxAttempts,
		InitialInterval: policy.InitialInterval,
		MaxInterval:     policy.MaxInterval,
	}
	err = retry.Do(taskCtx, retryPolicy, task.Name, func(ctx context.Context) error {
		ref, err := handler(ctx, e.deps, run, task)
		if err != nil {
			return err
		}
		outputRef = ref
		return nil
	})

	telemetry.EndTaskSpan(span, err)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	e.deps.Telemetry.ObserveTask(string(tt), outcome, time.Since(started))

	return outputRef, err
}

// PublishSnapshot loads run's full task list and broadcasts it as a
// DAG_STATUS event (spec.md §4.9, C9). Broadcast failures are logged and
// swallowed by events.Publisher.PublishDAGStatusSafe — they must never fail
// the task whose completion triggered the snapshot.
func (e *Engine) PublishSnapshot(ctx context.Context, run *models.WorkflowRun) {
	if e.deps.Events == nil {
		return
	}
	tasks, err := e.deps.Store.Workflows.ListTasks(ctx, run.ID)
	if err != nil {
		return
	}
	payload := events.NewDAGStatusPayload(run.TranscriptID, tasks, time.Now().Format(time.RFC3339Nano))
	e.deps.Events.PublishDAGStatusSafe(ctx, run.TranscriptID, payload)
}

// OnTaskCompleted bumps the fan-in counter of task's downstream gate, if
// task is a fan-out node (spec.md §4.11 fan-out/fan-in). Errors are logged
// by the caller; the counter is advisory (used for progress display), not
// load-bearing for correctness — WorkflowStore.ClaimNextTask's parent check
// already enforces the real dependency gate.
func (e *Engine) OnTaskCompleted(ctx context.Context, run *models.WorkflowRun, task *models.WorkflowTask) error {
	gate, ok := fanInTargets[taskType(task.Name)]
	if !ok {
		return nil
	}
	tasks, err := e.deps.Store.Workflows.ListTasks(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("list tasks for fan-in update: %w", err)
	}
	for _, t := range tasks {
		if t.Name == gate {
			if _, _, err := e.deps.Store.Workflows.IncrementChildrenCompleted(ctx, t.ID); err != nil {
				return fmt.Errorf("increment children_completed for %s: %w", gate, err)
			}
			return nil
		}
	}
	return nil
}
