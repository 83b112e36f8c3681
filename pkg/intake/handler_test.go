package intake

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
	testdb "github.com/codeready-toolchain/meetingscribe/test/database"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	client := testdb.NewTestClient(t)
	return store.New(client)
}

func seedRoomAndMeeting(t *testing.T, st *store.Store, meetingID string) *models.Meeting {
	t.Helper()
	ctx := context.Background()

	room := &models.Room{ID: "room-1", Name: "standup"}
	require.NoError(t, st.Rooms.Create(ctx, room))

	meeting := &models.Meeting{
		ID:        meetingID,
		RoomName:  "standup",
		RoomURL:   "https://video.example/standup",
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now(),
		RoomID:    room.ID,
	}
	require.NoError(t, st.Meetings.Create(ctx, meeting))
	return meeting
}

func TestHandler_Dispatch_RecordingReady_CreatesTranscriptAndRun(t *testing.T) {
	st := newTestStore(t)
	meeting := seedRoomAndMeeting(t, st, "meeting-1")
	h := NewHandler(st, nil)

	event := models.DailyWebhookEvent{
		Type: models.DailyEventRecordingReady,
		Recording: &models.DailyRecording{
			ID:         "rec-1",
			BucketName: "bucket",
			ObjectKey:  "rec-1/output.mp4",
			MeetingID:  meeting.ID,
		},
	}

	require.NoError(t, h.Dispatch(context.Background(), event))

	rec, err := st.Recordings.GetByID(context.Background(), "rec-1")
	require.NoError(t, err)
	require.NotNil(t, rec.MeetingID)
	assert.Equal(t, meeting.ID, *rec.MeetingID)
	assert.Equal(t, models.RecordingStatusReady, rec.Status)
}

func TestHandler_Dispatch_RecordingReady_DuplicateDeliveryIsIgnored(t *testing.T) {
	st := newTestStore(t)
	meeting := seedRoomAndMeeting(t, st, "meeting-1")
	h := NewHandler(st, nil)

	event := models.DailyWebhookEvent{
		Type: models.DailyEventRecordingReady,
		Recording: &models.DailyRecording{
			ID:         "rec-1",
			BucketName: "bucket",
			ObjectKey:  "rec-1/output.mp4",
			MeetingID:  meeting.ID,
		},
	}
	require.NoError(t, h.Dispatch(context.Background(), event))

	// A retried delivery for the same bucket/object pair, with a different
	// recording id, must not create a second transcript/recording.
	retry := event
	retry.Recording = &models.DailyRecording{
		ID:         "rec-1-retry",
		BucketName: "bucket",
		ObjectKey:  "rec-1/output.mp4",
		MeetingID:  meeting.ID,
	}
	require.NoError(t, h.Dispatch(context.Background(), retry))

	_, err := st.Recordings.GetByID(context.Background(), "rec-1-retry")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandler_Dispatch_RecordingReady_UnknownMeetingIsFiledAsOrphan(t *testing.T) {
	st := newTestStore(t)
	h := NewHandler(st, nil)

	event := models.DailyWebhookEvent{
		Type: models.DailyEventRecordingReady,
		Recording: &models.DailyRecording{
			ID:         "rec-orphan",
			BucketName: "bucket",
			ObjectKey:  "rec-orphan/output.mp4",
			MeetingID:  "does-not-exist",
		},
	}

	require.NoError(t, h.Dispatch(context.Background(), event))

	rec, err := st.Recordings.GetByID(context.Background(), "rec-orphan")
	require.NoError(t, err)
	assert.True(t, rec.IsOrphan())
	assert.Equal(t, models.RecordingStatusOrphan, rec.Status)
}

func TestHandler_Dispatch_ParticipantEvents_AreNoOps(t *testing.T) {
	st := newTestStore(t)
	h := NewHandler(st, nil)

	assert.NoError(t, h.Dispatch(context.Background(), models.DailyWebhookEvent{Type: models.DailyEventParticipantJoined}))
	assert.NoError(t, h.Dispatch(context.Background(), models.DailyWebhookEvent{Type: models.DailyEventParticipantLeft}))
}

func TestHandler_ServeHTTP_RejectsInvalidSignature(t *testing.T) {
	st := newTestStore(t)
	t.Setenv("WEBHOOK_SECRET", "s3cr3t")
	h := NewHandler(st, &config.IntakeConfig{SigningSecretEnv: "WEBHOOK_SECRET"})

	body := []byte(`{"type":"recording.ready-to-download","recording":{"id":"rec-1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/webhook/daily", strings.NewReader(string(body)))
	req.Header.Set("X-Webhook-Timestamp", "12345")
	req.Header.Set("X-Webhook-Signature", "not-the-real-signature")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_ServeHTTP_AcceptsValidSignature(t *testing.T) {
	st := newTestStore(t)
	seedRoomAndMeeting(t, st, "meeting-1")
	t.Setenv("WEBHOOK_SECRET", "s3cr3t")
	h := NewHandler(st, &config.IntakeConfig{SigningSecretEnv: "WEBHOOK_SECRET"})

	payload := models.DailyWebhookEvent{
		Type: models.DailyEventRecordingReady,
		Recording: &models.DailyRecording{
			ID:         "rec-signed",
			BucketName: "bucket",
			ObjectKey:  "rec-signed/output.mp4",
			MeetingID:  "meeting-1",
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	ts := "12345"
	mac := hmac.New(sha256.New, []byte("s3cr3t"))
	mac.Write([]byte(ts + "."))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/v1/webhook/daily", strings.NewReader(string(body)))
	req.Header.Set("X-Webhook-Timestamp", ts)
	req.Header.Set("X-Webhook-Signature", sig)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
