package models

import "time"

// TaskStatus is the lifecycle state of a single DAG task execution.
type TaskStatus string

const (
	TaskQueued    TaskStatus = "queued"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// TaskState describes one task's current execution state, as broadcast in a
// DagStatus snapshot (spec.md §3, §4.9).
type TaskState struct {
	Name              string     `json:"name"`
	Status            TaskStatus `json:"status"`
	QueuedAt          *time.Time `json:"queued_at,omitempty"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	Parents           []string   `json:"parents,omitempty"`
	Error             string     `json:"error,omitempty"`
	Attempt           int        `json:"attempt"`
	ChildrenTotal     *int       `json:"children_total,omitempty"`
	ChildrenCompleted *int       `json:"children_completed,omitempty"`
}

// DagStatus is the derived, broadcast-only authoritative snapshot of a
// workflow run's task list (spec.md §3).
type DagStatus struct {
	WorkflowRunID string      `json:"workflow_run_id"`
	Tasks         []TaskState `json:"tasks"`
	SnapshotAt    time.Time   `json:"snapshot_at"`
}
