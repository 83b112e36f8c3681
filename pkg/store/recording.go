package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// RecordingStore persists models.Recording rows.
type RecordingStore struct {
	pool *pgxpool.Pool
}

// TryCreateWithMeeting inserts a recording tied to a meeting, tolerating a
// duplicate delivery of the same recording id (webhook retries, C12 intake
// dedup). Returns true if a row was actually inserted.
func (s *RecordingStore) TryCreateWithMeeting(ctx context.Context, r *models.Recording) (bool, error) {
	if r.MeetingID == nil {
		return false, fmt.Errorf("try create with meeting: meeting id required")
	}
	return s.insert(ctx, r)
}

// CreateOrphan inserts a recording with no associated meeting — the webhook
// arrived before (or without) a matching meeting record (spec.md §6,
// scenario S6). Returns true if a row was actually inserted.
func (s *RecordingStore) CreateOrphan(ctx context.Context, r *models.Recording) (bool, error) {
	if r.MeetingID != nil {
		return false, fmt.Errorf("create orphan: meeting id must be nil")
	}
	r.Status = models.RecordingStatusOrphan
	return s.insert(ctx, r)
}

func (s *RecordingStore) insert(ctx context.Context, r *models.Recording) (bool, error) {
	trackKeys, err := json.Marshal(r.TrackKeys)
	if err != nil {
		return false, fmt.Errorf("marshal track_keys: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO recording (id, bucket_name, object_key, track_keys, recorded_at, status, meeting_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.BucketName, r.ObjectKey, trackKeys, r.RecordedAt, string(r.Status), r.MeetingID,
	)
	if err != nil {
		return false, fmt.Errorf("insert recording: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a recording by id.
func (s *RecordingStore) GetByID(ctx context.Context, id string) (*models.Recording, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, bucket_name, object_key, track_keys, recorded_at, status, meeting_id
		FROM recording WHERE id = $1`, id)
	return scanRecording(row)
}

// GetByObjectKey looks a recording up by its storage location, used by C12
// intake to dedup a webhook delivery against an already-ingested object.
func (s *RecordingStore) GetByObjectKey(ctx context.Context, bucket, objectKey string) (*models.Recording, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, bucket_name, object_key, track_keys, recorded_at, status, meeting_id
		FROM recording WHERE bucket_name = $1 AND object_key = $2`, bucket, objectKey)
	return scanRecording(row)
}

// UpdateStatus transitions a recording's processing status.
func (s *RecordingStore) UpdateStatus(ctx context.Context, id string, status models.RecordingStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE recording SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update recording status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachMeeting links an orphan recording to a meeting once one arrives
// (spec.md §6, scenario S6 reconciliation).
func (s *RecordingStore) AttachMeeting(ctx context.Context, id, meetingID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE recording SET meeting_id = $2, status = $3 WHERE id = $1 AND meeting_id IS NULL`,
		id, meetingID, string(models.RecordingStatusReady))
	if err != nil {
		return fmt.Errorf("attach meeting to recording: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMultitrackNeedingReprocessing returns multitrack recordings that either
// have no transcript yet or whose transcript ended in error, mirroring the
// reconciliation sweep the ingestion pipeline runs for stuck multitrack
// recordings.
func (s *RecordingStore) GetMultitrackNeedingReprocessing(ctx context.Context) ([]*models.Recording, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.bucket_name, r.object_key, r.track_keys, r.recorded_at, r.status, r.meeting_id
		FROM recording r
		LEFT JOIN transcript t ON t.recording_id = r.id
		WHERE r.track_keys IS NOT NULL AND jsonb_array_length(r.track_keys) > 0
		  AND (t.id IS NULL OR t.status = 'error')`)
	if err != nil {
		return nil, fmt.Errorf("query multitrack needing reprocessing: %w", err)
	}
	defer rows.Close()

	var out []*models.Recording
	for rows.Next() {
		r, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRecording(row rowScanner) (*models.Recording, error) {
	var (
		r         models.Recording
		status    string
		trackKeys []byte
	)
	err := row.Scan(&r.ID, &r.BucketName, &r.ObjectKey, &trackKeys, &r.RecordedAt, &status, &r.MeetingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan recording: %w", err)
	}
	r.Status = models.RecordingStatus(status)
	if trackKeys != nil {
		if err := json.Unmarshal(trackKeys, &r.TrackKeys); err != nil {
			return nil, fmt.Errorf("unmarshal track_keys: %w", err)
		}
	}
	return &r, nil
}
