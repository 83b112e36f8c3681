package events

import "github.com/codeready-toolchain/meetingscribe/pkg/models"

// TaskSnapshot is one task's current state within a DAGStatusPayload.
type TaskSnapshot struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Attempt   int    `json:"attempt"`
	Error     string `json:"error,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// DAGStatusPayload is the payload for DAG_STATUS events (spec.md §4.9):
// the full current task list for a workflow run, published as an
// authoritative snapshot rather than a delta on every task state change.
type DAGStatusPayload struct {
	Type         string         `json:"type"` // always models.EventTypeDagStatus
	TranscriptID string         `json:"transcript_id"`
	Tasks        []TaskSnapshot `json:"tasks"`
	Timestamp    string         `json:"timestamp"` // RFC3339Nano
}

// NewDAGStatusPayload builds a DAGStatusPayload from the workflow's current
// task list.
func NewDAGStatusPayload(transcriptID string, tasks []*models.WorkflowTask, timestamp string) DAGStatusPayload {
	snapshots := make([]TaskSnapshot, len(tasks))
	for i, t := range tasks {
		snapshots[i] = TaskSnapshot{
			Name:    t.Name,
			Status:  string(t.Status),
			Attempt: t.Attempt,
			Error:   t.Error,
		}
		if t.StartedAt != nil {
			snapshots[i].StartedAt = t.StartedAt.Format("2006-01-02T15:04:05.999999999Z07:00")
		}
		if t.HeartbeatAt != nil {
			snapshots[i].UpdatedAt = t.HeartbeatAt.Format("2006-01-02T15:04:05.999999999Z07:00")
		}
	}
	return DAGStatusPayload{
		Type:         models.EventTypeDagStatus,
		TranscriptID: transcriptID,
		Tasks:        snapshots,
		Timestamp:    timestamp,
	}
}
