package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutNameAndTaskType_RoundTrip(t *testing.T) {
	name := fanoutName(TaskPadTrack, 3)
	assert.Equal(t, "pad_track#3", name)
	assert.Equal(t, TaskPadTrack, taskType(name))
}

func TestTaskType_NoSuffix(t *testing.T) {
	assert.Equal(t, TaskMixdown, taskType(TaskMixdown))
}

func TestBuildTaskSpecs_SingleTrack(t *testing.T) {
	specs := BuildTaskSpecs(1)

	byName := make(map[string]int)
	for _, s := range specs {
		byName[s.Name] = len(s.Parents)
	}

	require.Contains(t, byName, TaskGetRecording)
	require.Contains(t, byName, "pad_track#0")
	require.Contains(t, byName, "transcribe_track#0")
	assert.NotContains(t, byName, "pad_track#1")

	// 2 non-fanout prefix tasks + 2 fanout tasks (1 track) + 11 downstream
	assert.Len(t, specs, 15)
}

func TestBuildTaskSpecs_MultiTrack_FanOutWidth(t *testing.T) {
	specs := BuildTaskSpecs(3)

	var padCount, transcribeCount int
	for _, s := range specs {
		switch taskType(s.Name) {
		case TaskPadTrack:
			padCount++
		case TaskTranscribeTrack:
			transcribeCount++
		}
	}
	assert.Equal(t, 3, padCount)
	assert.Equal(t, 3, transcribeCount)
}

func TestBuildTaskSpecs_ZeroTracksClampsToOne(t *testing.T) {
	specs := BuildTaskSpecs(0)
	found := false
	for _, s := range specs {
		if s.Name == "pad_track#0" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBuildTaskSpecs_MixdownDependsOnAllPadTracks(t *testing.T) {
	specs := BuildTaskSpecs(3)
	for _, s := range specs {
		if s.Name == TaskMixdown {
			assert.ElementsMatch(t, []string{"pad_track#0", "pad_track#1", "pad_track#2"}, s.Parents)
			return
		}
	}
	t.Fatal("mixdown task not found")
}

func TestBuildTaskSpecs_MergeWordsDependsOnAllTranscribeTracks(t *testing.T) {
	specs := BuildTaskSpecs(2)
	for _, s := range specs {
		if s.Name == TaskMergeWords {
			assert.ElementsMatch(t, []string{"transcribe_track#0", "transcribe_track#1"}, s.Parents)
			return
		}
	}
	t.Fatal("merge_words task not found")
}

func TestBuildTaskSpecs_FinalizeJoinsSummariesAndWaveform(t *testing.T) {
	specs := BuildTaskSpecs(1)
	for _, s := range specs {
		if s.Name == TaskFinalize {
			assert.ElementsMatch(t, []string{TaskTitleSummary, TaskLongSummary, TaskShortSummary, TaskWaveform}, s.Parents)
			return
		}
	}
	t.Fatal("finalize task not found")
}

func TestFanInTargets_CoversBothFanoutTypes(t *testing.T) {
	assert.Equal(t, TaskMixdown, fanInTargets[TaskPadTrack])
	assert.Equal(t, TaskMergeWords, fanInTargets[TaskTranscribeTrack])
}
