package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// Publisher persists DAG_STATUS events to the event table and broadcasts
// them via pg_notify (spec.md §4.9's progress broadcaster, C9). Grounded on
// the teacher's EventPublisher persist-then-notify-in-one-transaction
// pattern (pkg_notify is transactional, held until COMMIT), adapted from
// database/sql to pgxpool since the rest of the store layer dropped Ent/
// database/sql in favor of pgx.
type Publisher struct {
	pool *pgxpool.Pool
}

// NewPublisher creates a Publisher over the runtime connection pool.
func NewPublisher(pool *pgxpool.Pool) *Publisher {
	return &Publisher{pool: pool}
}

// PublishDAGStatus persists and broadcasts a DAG_STATUS snapshot for a
// transcript's workflow run. Per spec.md §4.9, broadcast failures must
// never fail the underlying task — callers should log the returned error
// and continue rather than abort.
func (p *Publisher) PublishDAGStatus(ctx context.Context, transcriptID string, payload DAGStatusPayload) error {
	channel := models.TranscriptChannel(transcriptID)

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal DAGStatusPayload: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin event transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var eventID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO event (transcript_id, channel, type, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		transcriptID, channel, models.EventTypeDagStatus, payloadJSON).Scan(&eventID)
	if err != nil {
		return fmt.Errorf("persist event: %w", err)
	}

	notifyPayload, err := injectDBEventID(payloadJSON, eventID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", channel, notifyPayload); err != nil {
		return fmt.Errorf("pg_notify: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit event transaction: %w", err)
	}

	return nil
}

// PublishDAGStatusSafe wraps PublishDAGStatus so broadcast failures are
// logged and swallowed rather than propagated, per spec.md §4.9.
func (p *Publisher) PublishDAGStatusSafe(ctx context.Context, transcriptID string, payload DAGStatusPayload) {
	if err := p.PublishDAGStatus(ctx, transcriptID, payload); err != nil {
		slog.Error("failed to broadcast DAG status", "transcript_id", transcriptID, "error", err)
	}
}

// injectDBEventID adds db_event_id to the JSON payload for NOTIFY
// delivery, truncating if the result would exceed PostgreSQL's 8000-byte
// NOTIFY payload limit (mirrors the teacher's truncation envelope).
func injectDBEventID(payloadJSON []byte, dbEventID int64) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(payloadJSON, &m); err != nil {
		return "", fmt.Errorf("unmarshal payload for db_event_id injection: %w", err)
	}
	m["db_event_id"] = dbEventID

	enriched, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal enriched NOTIFY payload: %w", err)
	}

	if len(enriched) <= 7900 {
		return string(enriched), nil
	}

	truncated := map[string]any{
		"type":          m["type"],
		"transcript_id": m["transcript_id"],
		"db_event_id":   dbEventID,
		"truncated":     true,
	}
	truncBytes, err := json.Marshal(truncated)
	if err != nil {
		return "", fmt.Errorf("marshal truncated payload: %w", err)
	}
	return string(truncBytes), nil
}
