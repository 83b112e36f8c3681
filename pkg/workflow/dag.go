// Package workflow implements C11: the DAG task registry, worker pool, and
// per-task handlers that execute the transcript-processing pipeline
// described in spec.md §4.11. It is the execution counterpart of
// pkg/store's WorkflowStore, which only persists run/task rows; the DAG
// shape itself (which task depends on which, and the fan-out width for
// per-track tasks) is constructed here, once, when a run starts.
//
// Grounded on the teacher's pkg/queue package: the claim-transaction,
// heartbeat, and orphan-detection patterns carry over directly from a flat
// session queue to a DAG whose edges are evaluated by WorkflowStore's
// claim query.
package workflow

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/meetingscribe/pkg/store"
)

// Static task names. Each has an entry in config.DefaultTaskPolicies except
// waveform, which resolves to the registry's fallback policy.
const (
	TaskGetRecording    = "get_recording"
	TaskGetParticipants = "get_participants"
	TaskPadTrack        = "pad_track"
	TaskMixdown         = "mixdown"
	TaskWaveform        = "waveform"
	TaskTranscribeTrack = "transcribe_track"
	TaskMergeWords      = "merge_words"
	TaskDetectTopics    = "detect_topics"
	TaskTitleSummary    = "title_summary"
	TaskLongSummary     = "long_summary"
	TaskShortSummary    = "short_summary"
	TaskFinalize        = "finalize"
	TaskConsentCleanup  = "consent_cleanup"
	TaskChatPost        = "chat_post"
	TaskWebhookSend     = "webhook_send"
)

// fanoutSep separates a fan-out task's type from its index, e.g.
// "pad_track#2" is the third pad_track node. taskType strips the suffix so
// the task-policy and handler lookups stay keyed on the bare type name.
const fanoutSep = "#"

// fanoutName builds a fan-out task's unique DAG node name.
func fanoutName(taskType string, index int) string {
	return fmt.Sprintf("%s%s%d", taskType, fanoutSep, index)
}

// taskType strips a fan-out index suffix, if any, returning the name used
// to look up a task policy or handler.
func taskType(name string) string {
	if i := strings.Index(name, fanoutSep); i >= 0 {
		return name[:i]
	}
	return name
}

// BuildTaskSpecs constructs the full static DAG for one transcript-
// processing run, given the number of recorded tracks. A single-track
// recording still produces one pad_track/transcribe_track pair (N=1); the
// diagram's fork() nodes collapse to that single branch rather than a
// special-cased shape (spec.md §4.11).
func BuildTaskSpecs(trackCount int) []store.TaskSpec {
	if trackCount < 1 {
		trackCount = 1
	}

	specs := []store.TaskSpec{
		{Name: TaskGetRecording},
		{Name: TaskGetParticipants, Parents: []string{TaskGetRecording}},
	}

	padNames := make([]string, trackCount)
	transcribeNames := make([]string, trackCount)
	for i := 0; i < trackCount; i++ {
		padNames[i] = fanoutName(TaskPadTrack, i)
		transcribeNames[i] = fanoutName(TaskTranscribeTrack, i)
		specs = append(specs,
			store.TaskSpec{Name: padNames[i], Parents: []string{TaskGetParticipants}},
			store.TaskSpec{Name: transcribeNames[i], Parents: []string{TaskGetParticipants}},
		)
	}

	specs = append(specs,
		store.TaskSpec{Name: TaskMixdown, Parents: padNames},
		store.TaskSpec{Name: TaskWaveform, Parents: []string{TaskMixdown}},
		store.TaskSpec{Name: TaskMergeWords, Parents: transcribeNames},
		store.TaskSpec{Name: TaskDetectTopics, Parents: []string{TaskMergeWords}},
		store.TaskSpec{Name: TaskTitleSummary, Parents: []string{TaskDetectTopics}},
		store.TaskSpec{Name: TaskLongSummary, Parents: []string{TaskDetectTopics}},
		store.TaskSpec{Name: TaskShortSummary, Parents: []string{TaskDetectTopics}},
		store.TaskSpec{Name: TaskFinalize, Parents: []string{TaskTitleSummary, TaskLongSummary, TaskShortSummary, TaskWaveform}},
		store.TaskSpec{Name: TaskConsentCleanup, Parents: []string{TaskFinalize}},
		store.TaskSpec{Name: TaskChatPost, Parents: []string{TaskConsentCleanup}},
		store.TaskSpec{Name: TaskWebhookSend, Parents: []string{TaskConsentCleanup}},
	)

	return specs
}

// fanInTargets maps a fan-out task type to the downstream gate task whose
// children_completed counter it should bump on completion (spec.md §4.11
// fan-out/fan-in).
var fanInTargets = map[string]string{
	TaskPadTrack:        TaskMixdown,
	TaskTranscribeTrack: TaskMergeWords,
}
