package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

func TestTranscriptChannel(t *testing.T) {
	tests := []struct {
		name         string
		transcriptID string
		want         string
	}{
		{name: "formats transcript channel correctly", transcriptID: "abc-123", want: "transcript:abc-123"},
		{
			name:         "handles UUID format",
			transcriptID: "550e8400-e29b-41d4-a716-446655440000",
			want:         "transcript:550e8400-e29b-41d4-a716-446655440000",
		},
		{name: "handles empty string", transcriptID: "", want: "transcript:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.TranscriptChannel(tt.transcriptID))
		})
	}
}

func TestClientMessage_RoundTrips(t *testing.T) {
	id := 42
	msg := ClientMessage{Action: "catchup", Channel: "transcript:abc", LastEventID: &id}
	assert.Equal(t, "catchup", msg.Action)
	assert.Equal(t, "transcript:abc", msg.Channel)
	assert.Equal(t, 42, *msg.LastEventID)
}
