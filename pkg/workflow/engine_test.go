package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicyRegistry() *config.TaskPolicyRegistry {
	return config.NewTaskPolicyRegistry(config.DefaultTaskPolicies(), config.DefaultTaskPolicyFallback)
}

func TestEngine_Execute_UnknownTaskTypeIsPermanent(t *testing.T) {
	engine := NewEngine(&Dependencies{}, testPolicyRegistry())
	run := &models.WorkflowRun{ID: "run-1", TranscriptID: "t-1"}
	task := &models.WorkflowTask{Name: "not_a_real_task"}

	_, err := engine.Execute(context.Background(), run, task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler registered")
}

func TestEngine_PolicyFor_StripsFanoutSuffix(t *testing.T) {
	engine := NewEngine(&Dependencies{}, testPolicyRegistry())
	task := &models.WorkflowTask{Name: "pad_track#4"}

	policy, err := engine.PolicyFor(task)
	require.NoError(t, err)

	bare, err := testPolicyRegistry().Get(TaskPadTrack)
	require.NoError(t, err)
	assert.Equal(t, bare.MaxAttempts, policy.MaxAttempts)
	assert.Equal(t, bare.Timeout, policy.Timeout)
}

func TestEngine_PolicyFor_UsesFallbackForUnlistedTask(t *testing.T) {
	fallback := &config.TaskPolicyConfig{MaxAttempts: 2, Timeout: 90 * time.Second}
	registry := config.NewTaskPolicyRegistry(config.DefaultTaskPolicies(), fallback)
	engine := NewEngine(&Dependencies{}, registry)

	policy, err := engine.PolicyFor(&models.WorkflowTask{Name: "some_future_task"})
	require.NoError(t, err)
	assert.Equal(t, fallback, policy)
}

func TestEngine_OnTaskCompleted_NonFanoutTaskIsNoop(t *testing.T) {
	// A non-fan-out task name has no entry in fanInTargets, so
	// OnTaskCompleted must return before touching the store at all (a nil
	// Dependencies.Store would otherwise panic).
	engine := NewEngine(&Dependencies{}, testPolicyRegistry())
	run := &models.WorkflowRun{ID: "run-1", TranscriptID: "t-1"}
	task := &models.WorkflowTask{Name: TaskFinalize}

	err := engine.OnTaskCompleted(context.Background(), run, task)
	assert.NoError(t, err)
}

func TestEngine_PublishSnapshot_NilEventsPublisherIsNoop(t *testing.T) {
	// deps.Events == nil must short-circuit before touching deps.Store.
	engine := NewEngine(&Dependencies{}, testPolicyRegistry())
	run := &models.WorkflowRun{ID: "run-1", TranscriptID: "t-1"}

	assert.NotPanics(t, func() {
		engine.PublishSnapshot(context.Background(), run)
	})
}
