package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/slack"
)

func TestChatNotifier_SkipsWhenRoomHasNoChat(t *testing.T) {
	n := &ChatNotifier{}
	err := n.NotifyChat(context.Background(), &models.Transcript{ID: "t-1"}, &models.Room{})
	assert.NoError(t, err)
}

func TestChatNotifier_NilReceiverIsNoop(t *testing.T) {
	var n *ChatNotifier
	err := n.NotifyChat(context.Background(), &models.Transcript{ID: "t-1"}, &models.Room{ChatChannel: "C1"})
	assert.NoError(t, err)
}

func TestNewChatNotifier_ReturnsNilWhenDisabled(t *testing.T) {
	assert.Nil(t, NewChatNotifier(&config.SlackConfig{Enabled: false}, "xoxb-test", nil, "https://x"))
	assert.Nil(t, NewChatNotifier(&config.SlackConfig{Enabled: true}, "", nil, "https://x"))
}

func TestChatNotifier_PostsAndRecordsMessageID(t *testing.T) {
	var posted bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posted = true
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C1", "ts": "1700000000.000100"})
	}))
	defer srv.Close()

	transcripts := &fakeMessageIDSetter{}
	n := &ChatNotifier{
		client:      slack.NewClientWithAPIURL("xoxb-test", srv.URL+"/"),
		transcripts: transcripts,
		frontendURL: "https://app.example.com",
	}

	tr := &models.Transcript{ID: "t-1", Title: "Standup", ShortSummary: "All good."}
	err := n.NotifyChat(context.Background(), tr, &models.Room{ChatChannel: "C1"})
	require.NoError(t, err)
	assert.True(t, posted)
	assert.Equal(t, "1700000000.000100", transcripts.lastMessageID)
}

type fakeMessageIDSetter struct {
	lastTranscriptID string
	lastMessageID    string
}

func (f *fakeMessageIDSetter) SetZulipMessageID(_ context.Context, id, messageID string) error {
	f.lastTranscriptID = id
	f.lastMessageID = messageID
	return nil
}
