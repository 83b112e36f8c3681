package models

import "time"

// RunStatus is the lifecycle state of a WorkflowRun.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// WorkflowRun is one execution of the transcript-processing DAG (spec.md
// §4.11, C11). force_replay distinguishes an operator-triggered
// re-execution from a plain resume of an interrupted run.
type WorkflowRun struct {
	ID           string    `json:"id"`
	TranscriptID string    `json:"transcript_id"`
	Status       RunStatus `json:"status"`
	ForceReplay  bool      `json:"force_replay"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WorkflowTask is one DAG node's persisted execution state — the durable
// counterpart of TaskState. input_ref/output_ref point at object-storage
// payloads rather than embedding them, so a queue row stays small
// regardless of what a task actually processes (spec.md §6).
type WorkflowTask struct {
	ID                int64      `json:"id"`
	WorkflowRunID     string     `json:"workflow_run_id"`
	Name              string     `json:"name"`
	Status            TaskStatus `json:"status"`
	Parents           []string   `json:"parents"`
	InputRef          string     `json:"input_ref,omitempty"`
	OutputRef         string     `json:"output_ref,omitempty"`
	Error             string     `json:"error,omitempty"`
	Attempt           int        `json:"attempt"`
	ChildrenTotal     *int       `json:"children_total,omitempty"`
	ChildrenCompleted int        `json:"children_completed"`
	ClaimedBy         string     `json:"claimed_by,omitempty"`
	ClaimedAt         *time.Time `json:"claimed_at,omitempty"`
	HeartbeatAt       *time.Time `json:"heartbeat_at,omitempty"`
	QueuedAt          time.Time  `json:"queued_at"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// ToTaskState projects a WorkflowTask onto the broadcast-only DagStatus view.
func (t WorkflowTask) ToTaskState() TaskState {
	return TaskState{
		Name:              t.Name,
		Status:            t.Status,
		QueuedAt:          &t.QueuedAt,
		StartedAt:         t.StartedAt,
		CompletedAt:       t.CompletedAt,
		Parents:           t.Parents,
		Error:             t.Error,
		Attempt:           t.Attempt,
		ChildrenTotal:     t.ChildrenTotal,
		ChildrenCompleted: &t.ChildrenCompleted,
	}
}
