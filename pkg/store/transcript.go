package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// TranscriptStore persists models.Transcript rows.
type TranscriptStore struct {
	pool *pgxpool.Pool
}

// Create inserts a new transcript row in the idle state.
func (s *TranscriptStore) Create(ctx context.Context, t *models.Transcript) error {
	topics, err := json.Marshal(t.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	participants, err := json.Marshal(t.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO transcript (
			id, status, source_language, target_language, duration, title,
			short_summary, long_summary, webvtt, topics, participants,
			workflow_run_id, audio_deleted, zulip_message_id, recording_id,
			room_id, user_id, error_message, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		t.ID, string(t.Status), t.SourceLanguage, t.TargetLanguage, t.Duration, t.Title,
		t.ShortSummary, t.LongSummary, t.WebVTT, topics, participants,
		nullString(&t.WorkflowRunID), t.AudioDeleted, nullString(&t.ZulipMessageID), nullString(&t.RecordingID),
		nullString(&t.RoomID), t.UserID, t.ErrorMessage, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

// Get retrieves a transcript by id.
func (s *TranscriptStore) Get(ctx context.Context, id string) (*models.Transcript, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, status, source_language, target_language, duration, title,
		       short_summary, long_summary, webvtt, waveform, topics, participants,
		       workflow_run_id, audio_deleted, zulip_message_id, recording_id,
		       room_id, user_id, error_message, created_at, updated_at
		FROM transcript WHERE id = $1`, id)
	return scanTranscript(row)
}

// UpdateStatus transitions a transcript's status and bumps updated_at.
func (s *TranscriptStore) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE transcript SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update transcript status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateError sets the error status and message.
func (s *TranscriptStore) UpdateError(ctx context.Context, id, message string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE transcript SET status = $2, error_message = $3, updated_at = now() WHERE id = $1`,
		id, string(models.StatusError), message)
	if err != nil {
		return fmt.Errorf("update transcript error: %w", err)
	}
	return nil
}

// SetWorkflowRunID associates a transcript with its workflow run.
func (s *TranscriptStore) SetWorkflowRunID(ctx context.Context, id, workflowRunID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE transcript SET workflow_run_id = $2, updated_at = now() WHERE id = $1`, id, workflowRunID)
	if err != nil {
		return fmt.Errorf("set workflow_run_id: %w", err)
	}
	return nil
}

// UpdateDuration sets the transcript's total duration (C3 mixdown output).
func (s *TranscriptStore) UpdateDuration(ctx context.Context, id string, duration float64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE transcript SET duration = $2, updated_at = now() WHERE id = $1`, id, duration)
	return err
}

// UpdateWebVTT sets the merged WebVTT transcript text (C6 output).
func (s *TranscriptStore) UpdateWebVTT(ctx context.Context, id, webvtt string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE transcript SET webvtt = $2, updated_at = now() WHERE id = $1`, id, webvtt)
	return err
}

// UpdateWaveform stores the waveform peak array (C4 output).
func (s *TranscriptStore) UpdateWaveform(ctx context.Context, id string, waveform []float64) error {
	data, err := json.Marshal(waveform)
	if err != nil {
		return fmt.Errorf("marshal waveform: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE transcript SET waveform = $2, updated_at = now() WHERE id = $1`, id, data)
	return err
}

// UpdateTopics replaces the topic list (C7 output).
func (s *TranscriptStore) UpdateTopics(ctx context.Context, id string, topics []models.Topic) error {
	data, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE transcript SET topics = $2, updated_at = now() WHERE id = $1`, id, data)
	return err
}

// UpdateParticipants replaces the participant list, as resolved by the
// get_participants task from the meeting's roster (spec.md §4.11).
func (s *TranscriptStore) UpdateParticipants(ctx context.Context, id string, participants []models.Participant) error {
	data, err := json.Marshal(participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE transcript SET participants = $2, updated_at = now() WHERE id = $1`, id, data)
	return err
}

// UpdateSummaries sets the title, long, and short summaries (C8 output).
func (s *TranscriptStore) UpdateSummaries(ctx context.Context, id, title, long, short string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE transcript SET title = $2, long_summary = $3, short_summary = $4, updated_at = now() WHERE id = $1`,
		id, title, long, short)
	return err
}

// MarkAudioDeleted flags that the retention sweep has removed this
// transcript's audio objects from storage (spec.md §8).
func (s *TranscriptStore) MarkAudioDeleted(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE transcript SET audio_deleted = TRUE, updated_at = now() WHERE id = $1`, id)
	return err
}

// SetZulipMessageID records the chat-post message id for later threading.
func (s *TranscriptStore) SetZulipMessageID(ctx context.Context, id, messageID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE transcript SET zulip_message_id = $2, updated_at = now() WHERE id = $1`, id, messageID)
	return err
}

// ListExpiredAnonymous returns anonymous transcripts whose audio has not yet
// been deleted and whose created_at is older than cutoff (spec.md §3, §8).
func (s *TranscriptStore) ListExpiredAnonymous(ctx context.Context, cutoff time.Time) ([]*models.Transcript, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, status, source_language, target_language, duration, title,
		       short_summary, long_summary, webvtt, waveform, topics, participants,
		       workflow_run_id, audio_deleted, zulip_message_id, recording_id,
		       room_id, user_id, error_message, created_at, updated_at
		FROM transcript
		WHERE user_id IS NULL AND room_id IS NULL AND audio_deleted = FALSE AND created_at < $1`,
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("query expired anonymous transcripts: %w", err)
	}
	defer rows.Close()

	var out []*models.Transcript
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListExpired returns named-meeting transcripts past the retention window
// whose audio has not yet been deleted.
func (s *TranscriptStore) ListExpired(ctx context.Context, cutoff time.Time) ([]*models.Transcript, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, status, source_language, target_language, duration, title,
		       short_summary, long_summary, webvtt, waveform, topics, participants,
		       workflow_run_id, audio_deleted, zulip_message_id, recording_id,
		       room_id, user_id, error_message, created_at, updated_at
		FROM transcript
		WHERE audio_deleted = FALSE AND created_at < $1`,
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("query expired transcripts: %w", err)
	}
	defer rows.Close()

	var out []*models.Transcript
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTranscript(row rowScanner) (*models.Transcript, error) {
	var (
		t                                                 models.Transcript
		status                                             string
		waveform, topics, participants                     []byte
		workflowRunID, zulipMessageID, recordingID, roomID *string
	)

	err := row.Scan(
		&t.ID, &status, &t.SourceLanguage, &t.TargetLanguage, &t.Duration, &t.Title,
		&t.ShortSummary, &t.LongSummary, &t.WebVTT, &waveform, &topics, &participants,
		&workflowRunID, &t.AudioDeleted, &zulipMessageID, &recordingID,
		&roomID, &t.UserID, &t.ErrorMessage, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan transcript: %w", err)
	}

	t.Status = models.Status(status)
	if workflowRunID != nil {
		t.WorkflowRunID = *workflowRunID
	}
	if zulipMessageID != nil {
		t.ZulipMessageID = *zulipMessageID
	}
	if recordingID != nil {
		t.RecordingID = *recordingID
	}
	if roomID != nil {
		t.RoomID = *roomID
	}
	if waveform != nil {
		if err := json.Unmarshal(waveform, &t.Waveform); err != nil {
			return nil, fmt.Errorf("unmarshal waveform: %w", err)
		}
	}
	if err := json.Unmarshal(topics, &t.Topics); err != nil {
		return nil, fmt.Errorf("unmarshal topics: %w", err)
	}
	if err := json.Unmarshal(participants, &t.Participants); err != nil {
		return nil, fmt.Errorf("unmarshal participants: %w", err)
	}

	return &t, nil
}

// nullString converts an empty string (or nil pointer) to a SQL NULL.
func nullString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
