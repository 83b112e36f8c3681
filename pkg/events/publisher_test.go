package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

func TestInjectDBEventID_PassesThroughNormalPayload(t *testing.T) {
	payload, err := json.Marshal(DAGStatusPayload{
		Type:         models.EventTypeDagStatus,
		TranscriptID: "abc-123",
		Tasks:        []TaskSnapshot{{Name: "pad_track", Status: "completed"}},
	})
	require.NoError(t, err)

	result, err := injectDBEventID(payload, 42)
	require.NoError(t, err)
	assert.Contains(t, result, "abc-123")
	assert.Contains(t, result, "\"db_event_id\":42")
}

func TestInjectDBEventID_TruncatesOversizedPayload(t *testing.T) {
	tasks := make([]TaskSnapshot, 2000)
	for i := range tasks {
		tasks[i] = TaskSnapshot{Name: "task", Status: "completed", Error: "some fairly long error message repeated many times over"}
	}
	payload, err := json.Marshal(DAGStatusPayload{
		Type:         models.EventTypeDagStatus,
		TranscriptID: "abc-123",
		Tasks:        tasks,
	})
	require.NoError(t, err)

	result, err := injectDBEventID(payload, 7)
	require.NoError(t, err)
	assert.Contains(t, result, "truncated")
	assert.Less(t, len(result), 8000)
}

func TestNewDAGStatusPayload_MapsTaskFields(t *testing.T) {
	tasks := []*models.WorkflowTask{
		{Name: "pad_track", Status: models.TaskRunning, Attempt: 2},
		{Name: "mixdown", Status: models.TaskQueued},
	}

	payload := NewDAGStatusPayload("transcript-1", tasks, "2026-01-01T00:00:00Z")
	require.Len(t, payload.Tasks, 2)
	assert.Equal(t, models.EventTypeDagStatus, payload.Type)
	assert.Equal(t, "pad_track", payload.Tasks[0].Name)
	assert.Equal(t, "running", payload.Tasks[0].Status)
	assert.Equal(t, 2, payload.Tasks[0].Attempt)
}
