// Package intake implements C12, the inbound recording webhook receiver
// (spec.md §4.12, §6). It verifies the video platform's HMAC signature,
// dedups deliveries against the recording table, reconciles a recording
// against its meeting (or files it as an orphan, scenario S6), creates the
// owning Transcript row, and kicks off the workflow run.
package intake

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
	"github.com/codeready-toolchain/meetingscribe/pkg/workflow"
)

// maxBodyBytes bounds the inbound payload; a recording event is a few
// hundred bytes of JSON, this leaves generous headroom.
const maxBodyBytes = 1 << 20

// ErrInvalidSignature is returned by Verify when the HMAC does not match.
var ErrInvalidSignature = errors.New("intake: invalid webhook signature")

// Handler receives and dispatches inbound video-platform webhook deliveries.
type Handler struct {
	Store            *store.Store
	signingSecretEnv string
	now              func() time.Time
}

// NewHandler builds a Handler from the resolved store and intake config.
func NewHandler(st *store.Store, cfg *config.IntakeConfig) *Handler {
	h := &Handler{Store: st, now: time.Now}
	if cfg != nil {
		h.signingSecretEnv = cfg.SigningSecretEnv
	}
	return h
}

// ServeHTTP implements the POST /v1/webhook/daily route.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxBodyBytes {
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := h.verify(r.Header.Get("X-Webhook-Signature"), r.Header.Get("X-Webhook-Timestamp"), body); err != nil {
		slog.Warn("intake: rejected webhook delivery", "error", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var event models.DailyWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "malformed event", http.StatusBadRequest)
		return
	}

	if err := h.Dispatch(r.Context(), event); err != nil {
		slog.Error("intake: dispatch failed", "type", event.Type, "error", err)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// verify checks the HMAC-SHA256 signature over "timestamp.body" under the
// shared secret (spec.md §6). Inbound deliveries carry the timestamp and
// signature as two separate headers, unlike the combined
// "t=...,v1=..." scheme pkg/notify uses for outbound webhooks.
func (h *Handler) verify(sig, ts string, body []byte) error {
	if h.signingSecretEnv == "" {
		return nil // signature verification disabled (local/dev)
	}
	secret := os.Getenv(h.signingSecretEnv)
	if secret == "" {
		return fmt.Errorf("intake: env var %s is not set", h.signingSecretEnv)
	}
	if sig == "" || ts == "" {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrInvalidSignature
	}
	return nil
}

// Dispatch routes a verified event to its handler by type.
func (h *Handler) Dispatch(ctx context.Context, event models.DailyWebhookEvent) error {
	switch event.Type {
	case models.DailyEventRecordingReady:
		if event.Recording == nil {
			return fmt.Errorf("intake: %s event missing recording payload", event.Type)
		}
		return h.handleRecordingReady(ctx, event.Recording)
	case models.DailyEventRecordingStarted:
		if event.Recording == nil {
			return fmt.Errorf("intake: %s event missing recording payload", event.Type)
		}
		return h.handleRecordingStarted(ctx, event.Recording)
	case models.DailyEventRecordingError:
		if event.Recording == nil {
			return fmt.Errorf("intake: %s event missing recording payload", event.Type)
		}
		return h.handleRecordingError(ctx, event.Recording)
	case models.DailyEventParticipantJoined, models.DailyEventParticipantLeft:
		// Presence feeds the live WebRTC capture path, out of scope here
		// (spec.md §1). Acknowledged so the platform doesn't retry.
		return nil
	default:
		return fmt.Errorf("intake: unrecognized event type %q", event.Type)
	}
}

// handleRecordingStarted records a recording as in-progress so operators
// can see it before the matching ready-to-download delivery arrives. Best
// effort: a missing row at this point is not an error, since some deployments
// never configure the "started" event at all.
func (h *Handler) handleRecordingStarted(ctx context.Context, rec *models.DailyRecording) error {
	if err := h.Store.Recordings.UpdateStatus(ctx, rec.ID, models.RecordingStatusStarted); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("mark recording %s started: %w", rec.ID, err)
	}
	return nil
}

// handleRecordingError marks a recording as failed; any transcript already
// spawned for it is left for the workflow's own task-failure handling.
func (h *Handler) handleRecordingError(ctx context.Context, rec *models.DailyRecording) error {
	if err := h.Store.Recordings.UpdateStatus(ctx, rec.ID, models.RecordingStatusError); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("mark recording %s error: %w", rec.ID, err)
	}
	return nil
}

// handleRecordingReady is the main C12 path: dedup the delivery against an
// already-ingested object, resolve the owning meeting (or file the
// recording as an orphan per scenario S6), create the Transcript row, and
// start the workflow run.
func (h *Handler) handleRecordingReady(ctx context.Context, rec *models.DailyRecording) error {
	if existing, err := h.Store.Recordings.GetByObjectKey(ctx, rec.BucketName, rec.ObjectKey); err == nil {
		slog.Info("intake: duplicate recording delivery ignored", "recording_id", existing.ID, "bucket", rec.BucketName, "object_key", rec.ObjectKey)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check existing recording %s/%s: %w", rec.BucketName, rec.ObjectKey, err)
	}

	recording := &models.Recording{
		ID:         rec.ID,
		BucketName: rec.BucketName,
		ObjectKey:  rec.ObjectKey,
		TrackKeys:  rec.TrackKeys,
		RecordedAt: h.now(),
		Status:     models.RecordingStatusReady,
	}

	var meeting *models.Meeting
	if rec.MeetingID != "" {
		m, err := h.Store.Meetings.GetByID(ctx, rec.MeetingID)
		switch {
		case err == nil:
			meeting = m
		case errors.Is(err, store.ErrNotFound):
			meeting = nil
		default:
			return fmt.Errorf("look up meeting %s: %w", rec.MeetingID, err)
		}
	}

	if meeting != nil {
		meetingID := meeting.ID
		recording.MeetingID = &meetingID
		if _, err := h.Store.Recordings.TryCreateWithMeeting(ctx, recording); err != nil {
			return fmt.Errorf("create recording %s: %w", recording.ID, err)
		}
		return h.startTranscript(ctx, recording, meeting)
	}

	// No meeting_id on the payload, or it doesn't resolve to a known
	// meeting yet (the calendar/room-creation path that would normally
	// precede it is out of scope here, spec.md §1). File it as an orphan;
	// AttachMeeting exists for whatever process later learns the answer.
	if _, err := h.Store.Recordings.CreateOrphan(ctx, recording); err != nil {
		return fmt.Errorf("create orphan recording %s: %w", recording.ID, err)
	}
	slog.Info("intake: recording filed as orphan", "recording_id", recording.ID, "bucket", recording.BucketName)
	return nil
}

// startTranscript creates the Transcript row owned by recording/meeting and
// starts its workflow run.
func (h *Handler) startTranscript(ctx context.Context, recording *models.Recording, meeting *models.Meeting) error {
	now := h.now()
	transcript := &models.Transcript{
		ID:          uuid.New().String(),
		Status:      models.StatusIdle,
		RecordingID: recording.ID,
		RoomID:      meeting.RoomID,
		UserID:      meeting.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Store.Transcripts.Create(ctx, transcript); err != nil {
		return fmt.Errorf("create transcript for recording %s: %w", recording.ID, err)
	}

	runID := uuid.New().String()
	if _, err := workflow.StartRun(ctx, h.Store, runID, transcript.ID, recording); err != nil {
		return fmt.Errorf("start workflow run for transcript %s: %w", transcript.ID, err)
	}
	return nil
}
