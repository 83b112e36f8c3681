package merge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

func TestMerge_StableByStartThenSpeaker(t *testing.T) {
	trackA := []models.Word{
		{Text: "hello", Start: 0.0, End: 0.4, Speaker: 0},
		{Text: "there", Start: 1.0, End: 1.3, Speaker: 0},
	}
	trackB := []models.Word{
		{Text: "hi", Start: 0.0, End: 0.3, Speaker: 1},
		{Text: "friend", Start: 0.9, End: 1.1, Speaker: 1},
	}

	result := Merge([][]models.Word{trackA, trackB})

	require.Equal(t, 4, result.WordCount)
	require.Equal(t, []string{"hello", "hi", "friend", "there"}, texts(result.Words))
	require.Equal(t, 0, result.Words[0].Speaker)
	require.Equal(t, 1, result.Words[1].Speaker)
}

func TestMerge_Empty(t *testing.T) {
	result := Merge(nil)
	require.Equal(t, 0, result.WordCount)
	require.Empty(t, result.Words)
}

func TestTagBySpeakerSegments_AssignsContainingSegment(t *testing.T) {
	words := []models.Word{
		{Text: "Hello", Start: 0.0, End: 0.5},
		{Text: "world.", Start: 0.5, End: 1.0},
		{Text: "Goodbye", Start: 2.0, End: 2.5},
	}
	segments := []DiarizationSegment{
		{Start: 0.0, End: 1.5, Speaker: 0},
		{Start: 1.5, End: 3.0, Speaker: 1},
	}

	tagged := TagBySpeakerSegments(words, segments)

	require.Equal(t, 0, tagged[0].Speaker)
	require.Equal(t, 0, tagged[1].Speaker)
	require.Equal(t, 1, tagged[2].Speaker)
}

func TestTagBySpeakerSegments_GapInheritsPreviousWhenMidSentence(t *testing.T) {
	words := []models.Word{
		{Text: "and", Start: 0.0, End: 0.3},
		{Text: "then", Start: 1.2, End: 1.5}, // falls in the gap between segments
		{Text: "ok", Start: 1.7, End: 1.9},   // keeps the second segment from being dropped
	}
	segments := []DiarizationSegment{
		{Start: 0.0, End: 1.0, Speaker: 0},
		{Start: 1.6, End: 2.0, Speaker: 1},
	}

	tagged := TagBySpeakerSegments(words, segments)

	require.Equal(t, 0, tagged[0].Speaker)
	require.Equal(t, 0, tagged[1].Speaker) // "and" has no terminal punctuation, "then" not uppercase-fresh-sentence
}

func TestTagBySpeakerSegments_DropsSegmentsWithNoWords(t *testing.T) {
	words := []models.Word{
		{Text: "only", Start: 0.0, End: 0.5},
	}
	segments := []DiarizationSegment{
		{Start: 0.0, End: 1.0, Speaker: 0},
		{Start: 5.0, End: 6.0, Speaker: 1}, // no words fall here
	}

	tagged := TagBySpeakerSegments(words, segments)
	require.Equal(t, 0, tagged[0].Speaker)
}

func texts(words []models.Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out
}
