package workflow

import (
	"testing"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestVttTimestamp_Formatting(t *testing.T) {
	assert.Equal(t, "00:00:00.000", vttTimestamp(0))
	assert.Equal(t, "00:00:01.500", vttTimestamp(1.5))
	assert.Equal(t, "00:01:05.000", vttTimestamp(65))
	assert.Equal(t, "01:00:00.000", vttTimestamp(3600))
}

func TestVttTimestamp_NegativeClampsToZero(t *testing.T) {
	assert.Equal(t, "00:00:00.000", vttTimestamp(-5))
}

func TestBuildWebVTT_Header(t *testing.T) {
	out := buildWebVTT(nil)
	assert.Equal(t, "WEBVTT\n\n", out)
}

func TestBuildWebVTT_OneCuePerWordAcrossTopics(t *testing.T) {
	topics := []models.Topic{
		{
			Title: "intro",
			Words: []models.Word{
				{Text: "hello", Start: 0, End: 0.5},
				{Text: "world", Start: 0.5, End: 1},
			},
		},
		{
			Title: "body",
			Words: []models.Word{
				{Text: "ok", Start: 1, End: 1.2},
			},
		},
	}

	out := buildWebVTT(topics)

	assert.Contains(t, out, "WEBVTT\n\n")
	assert.Contains(t, out, "1\n00:00:00.000 --> 00:00:00.500\nhello\n\n")
	assert.Contains(t, out, "2\n00:00:00.500 --> 00:00:01.000\nworld\n\n")
	assert.Contains(t, out, "3\n00:00:01.000 --> 00:00:01.200\nok\n\n")
}
