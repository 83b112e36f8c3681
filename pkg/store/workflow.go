package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// WorkflowStore persists DAG run/task state for C11. Task claiming uses
// SELECT ... FOR UPDATE SKIP LOCKED, the same claim-transaction pattern the
// teacher's queue worker uses for alert sessions, generalized here from a
// flat queue to a DAG whose edges are evaluated in the claim query itself.
type WorkflowStore struct {
	pool *pgxpool.Pool
}

// TaskSpec describes one DAG node to seed when a run is created.
type TaskSpec struct {
	Name    string
	Parents []string
}

// CreateRun inserts a workflow_run row and its full set of queued tasks in a
// single transaction. forceReplay marks an operator-triggered re-execution
// rather than a resume of an interrupted run (spec.md §4.11).
func (s *WorkflowStore) CreateRun(ctx context.Context, id, transcriptID string, forceReplay bool, tasks []TaskSpec) (*models.WorkflowRun, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create run: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	run := &models.WorkflowRun{
		ID:           id,
		TranscriptID: transcriptID,
		Status:       models.RunStatusRunning,
		ForceReplay:  forceReplay,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO workflow_run (id, transcript_id, status, force_replay)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		run.ID, run.TranscriptID, string(run.Status), run.ForceReplay,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert workflow_run: %w", err)
	}

	for _, t := range tasks {
		parents, err := json.Marshal(t.Parents)
		if err != nil {
			return nil, fmt.Errorf("marshal parents for %s: %w", t.Name, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO workflow_task (workflow_run_id, name, status, parents)
			VALUES ($1,$2,'queued',$3)`,
			run.ID, t.Name, parents,
		); err != nil {
			return nil, fmt.Errorf("insert workflow_task %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create run: %w", err)
	}
	return run, nil
}

// ResetForReplay requeues every task of an existing run back to its initial
// state, used when an operator forces a full re-execution (spec.md §4.11).
func (s *WorkflowStore) ResetForReplay(ctx context.Context, runID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset for replay: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE workflow_task
		SET status = 'queued', error = '', attempt = 0, output_ref = '',
		    claimed_by = NULL, claimed_at = NULL, heartbeat_at = NULL,
		    queued_at = now(), started_at = NULL, completed_at = NULL,
		    children_completed = 0
		WHERE workflow_run_id = $1`, runID); err != nil {
		return fmt.Errorf("requeue tasks: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE workflow_run SET status = 'running', force_replay = TRUE, updated_at = now()
		WHERE id = $1`, runID); err != nil {
		return fmt.Errorf("reset run status: %w", err)
	}

	return tx.Commit(ctx)
}

// ClaimNextTask atomically claims the next task, across all runs, whose
// parents have all completed. Returns ErrNoTaskAvailable if nothing is
// currently claimable.
func (s *WorkflowStore) ClaimNextTask(ctx context.Context, workerID string) (*models.WorkflowTask, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim task: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT t.id, t.workflow_run_id, t.name, t.status, t.parents, t.input_ref,
		       t.output_ref, t.error, t.attempt, t.children_total, t.children_completed,
		       t.claimed_by, t.claimed_at, t.heartbeat_at, t.queued_at, t.started_at, t.completed_at
		FROM workflow_task t
		WHERE t.status = 'queued'
		  AND NOT EXISTS (
		      SELECT 1 FROM jsonb_array_elements_text(t.parents) AS parent(name)
		      LEFT JOIN workflow_task pt
		        ON pt.workflow_run_id = t.workflow_run_id AND pt.name = parent.name
		      WHERE pt.id IS NULL OR pt.status <> 'completed'
		  )
		ORDER BY t.queued_at ASC
		LIMIT 1
		FOR UPDATE OF t SKIP LOCKED`)

	task, err := scanWorkflowTask(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoTaskAvailable
		}
		return nil, fmt.Errorf("query claimable task: %w", err)
	}

	now := time.Now()
	err = tx.QueryRow(ctx, `
		UPDATE workflow_task
		SET status = 'running', claimed_by = $2, claimed_at = $3, heartbeat_at = $3,
		    started_at = $3, attempt = attempt + 1
		WHERE id = $1
		RETURNING attempt, claimed_at, heartbeat_at, started_at`,
		task.ID, workerID, now,
	).Scan(&task.Attempt, &task.ClaimedAt, &task.HeartbeatAt, &task.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("claim task: %w", err)
	}
	task.Status = models.TaskRunning
	task.ClaimedBy = workerID

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return task, nil
}

// Heartbeat refreshes a running task's liveness timestamp, used by the
// worker pool's orphan-detection sweep (spec.md §4.11).
func (s *WorkflowStore) Heartbeat(ctx context.Context, taskID int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE workflow_task SET heartbeat_at = now()
		WHERE id = $1 AND status = 'running'`, taskID)
	if err != nil {
		return fmt.Errorf("heartbeat task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteTask marks a task completed and records where its output payload
// lives in object storage.
func (s *WorkflowStore) CompleteTask(ctx context.Context, taskID int64, outputRef string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE workflow_task SET status = 'completed', output_ref = $2, completed_at = now()
		WHERE id = $1`, taskID, outputRef)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FailTask records a task failure. requeue puts it back in the queued state
// for the configured retry policy to pick up again; otherwise it is left
// failed and the run is marked failed.
func (s *WorkflowStore) FailTask(ctx context.Context, taskID int64, taskErr string, requeue bool) error {
	status := "failed"
	if requeue {
		status = "queued"
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE workflow_task
		SET status = $2, error = $3, completed_at = CASE WHEN $2 = 'failed' THEN now() ELSE NULL END,
		    claimed_by = NULL, claimed_at = NULL, heartbeat_at = NULL
		WHERE id = $1`, taskID, status, taskErr)
	if err != nil {
		return fmt.Errorf("fail task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetChildrenTotal records the fan-out width once it is known (spec.md
// §4.11 fan-out/fan-in: a per-track task's sibling count is only known
// after upstream track discovery completes).
func (s *WorkflowStore) SetChildrenTotal(ctx context.Context, taskID int64, total int) error {
	_, err := s.pool.Exec(ctx, `UPDATE workflow_task SET children_total = $2 WHERE id = $1`, taskID, total)
	return err
}

// IncrementChildrenCompleted bumps a fan-in gate's completed-child counter
// and reports the updated count alongside the configured total.
func (s *WorkflowStore) IncrementChildrenCompleted(ctx context.Context, taskID int64) (completed int, total *int, err error) {
	err = s.pool.QueryRow(ctx, `
		UPDATE workflow_task SET children_completed = children_completed + 1
		WHERE id = $1
		RETURNING children_completed, children_total`, taskID,
	).Scan(&completed, &total)
	if err != nil {
		return 0, nil, fmt.Errorf("increment children_completed: %w", err)
	}
	return completed, total, nil
}

// ListTasks returns every task belonging to a run, ordered by queued_at.
func (s *WorkflowStore) ListTasks(ctx context.Context, runID string) ([]*models.WorkflowTask, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, workflow_run_id, name, status, parents, input_ref, output_ref, error,
		       attempt, children_total, children_completed, claimed_by, claimed_at,
		       heartbeat_at, queued_at, started_at, completed_at
		FROM workflow_task WHERE workflow_run_id = $1 ORDER BY queued_at ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list workflow tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.WorkflowTask
	for rows.Next() {
		t, err := scanWorkflowTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetRun retrieves a workflow run by id.
func (s *WorkflowStore) GetRun(ctx context.Context, id string) (*models.WorkflowRun, error) {
	var r models.WorkflowRun
	var status string
	err := s.pool.QueryRow(ctx, `
		SELECT id, transcript_id, status, force_replay, created_at, updated_at
		FROM workflow_run WHERE id = $1`, id,
	).Scan(&r.ID, &r.TranscriptID, &status, &r.ForceReplay, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get workflow run: %w", err)
	}
	r.Status = models.RunStatus(status)
	return &r, nil
}

// UpdateRunStatus transitions a run's terminal status once all tasks have
// settled.
func (s *WorkflowStore) UpdateRunStatus(ctx context.Context, id string, status models.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE workflow_run SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrphanedTasks returns running tasks whose heartbeat is older than
// threshold — candidates for the orphan-detection sweep to requeue or fail
// (spec.md §4.11, grounded on the teacher's queue orphan detector).
func (s *WorkflowStore) ListOrphanedTasks(ctx context.Context, threshold time.Duration) ([]*models.WorkflowTask, error) {
	cutoff := time.Now().Add(-threshold)
	rows, err := s.pool.Query(ctx, `
		SELECT id, workflow_run_id, name, status, parents, input_ref, output_ref, error,
		       attempt, children_total, children_completed, claimed_by, claimed_at,
		       heartbeat_at, queued_at, started_at, completed_at
		FROM workflow_task
		WHERE status = 'running' AND (heartbeat_at IS NULL OR heartbeat_at < $1)`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query orphaned tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.WorkflowTask
	for rows.Next() {
		t, err := scanWorkflowTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanWorkflowTask(row rowScanner) (*models.WorkflowTask, error) {
	var (
		t       models.WorkflowTask
		status  string
		parents []byte
		claimedBy *string
	)
	err := row.Scan(
		&t.ID, &t.WorkflowRunID, &t.Name, &status, &parents, &t.InputRef, &t.OutputRef, &t.Error,
		&t.Attempt, &t.ChildrenTotal, &t.ChildrenCompleted, &claimedBy, &t.ClaimedAt,
		&t.HeartbeatAt, &t.QueuedAt, &t.StartedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan workflow task: %w", err)
	}
	t.Status = models.TaskStatus(status)
	if claimedBy != nil {
		t.ClaimedBy = *claimedBy
	}
	if err := json.Unmarshal(parents, &t.Parents); err != nil {
		return nil, fmt.Errorf("unmarshal parents: %w", err)
	}
	return &t, nil
}
