package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// EventStore persists models.Event rows — the append-only log backing the
// WebSocket catch-up-by-cursor mechanism (spec.md §4.9).
type EventStore struct {
	pool *pgxpool.Pool
}

// Append inserts a new event and returns it with its assigned monotonic id.
func (s *EventStore) Append(ctx context.Context, e *models.Event) (*models.Event, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO event (transcript_id, channel, type, payload)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at`, e.TranscriptID, e.Channel, e.Type, payload)

	out := *e
	if err := row.Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return &out, nil
}

// ListSince returns every event for a transcript with id strictly greater
// than cursor, in ascending order — a reconnecting WebSocket client's
// catch-up query (spec.md §4.9). cursor=0 returns the full history.
func (s *EventStore) ListSince(ctx context.Context, transcriptID string, cursor int64) ([]*models.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, transcript_id, channel, type, payload, created_at
		FROM event WHERE transcript_id = $1 AND id > $2
		ORDER BY id ASC`, transcriptID, cursor)
	if err != nil {
		return nil, fmt.Errorf("query events since cursor: %w", err)
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		var (
			e       models.Event
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.TranscriptID, &e.Channel, &e.Type, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal event payload: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// DeleteOlderThan removes every event row created before cutoff, returning
// the number deleted. A safety net behind per-transcript cleanup (spec.md
// §9): most events are pruned when their owning transcript is deleted, but
// this catches anything left orphaned (RetentionConfig.EventTTL).
func (s *EventStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM event WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete events older than %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}

// LatestCursor returns the highest event id recorded for a transcript, or 0
// if it has no events yet.
func (s *EventStore) LatestCursor(ctx context.Context, transcriptID string) (int64, error) {
	var cursor int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(id), 0) FROM event WHERE transcript_id = $1`, transcriptID).Scan(&cursor)
	if err != nil {
		return 0, fmt.Errorf("query latest event cursor: %w", err)
	}
	return cursor, nil
}
