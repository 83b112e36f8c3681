package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// RoomStore persists models.Room rows — the webhook/chat integration
// configuration consumed by C10 notify.
type RoomStore struct {
	pool *pgxpool.Pool
}

// Create inserts a new room.
func (s *RoomStore) Create(ctx context.Context, r *models.Room) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO room (id, name, user_id, webhook_url, webhook_secret, is_locked,
		                   chat_channel, recording_type, recording_trigger)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		r.ID, r.Name, r.UserID, r.WebhookURL, r.WebhookSecret, r.IsLocked,
		r.ChatChannel, r.RecordingType, r.RecordingTrigger,
	)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// GetByID retrieves a room by id.
func (s *RoomStore) GetByID(ctx context.Context, id string) (*models.Room, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, user_id, webhook_url, webhook_secret, is_locked,
		       chat_channel, recording_type, recording_trigger
		FROM room WHERE id = $1`, id)
	return scanRoom(row)
}

// Update replaces a room's mutable configuration fields.
func (s *RoomStore) Update(ctx context.Context, r *models.Room) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE room SET name = $2, webhook_url = $3, webhook_secret = $4, is_locked = $5,
		                chat_channel = $6, recording_type = $7, recording_trigger = $8
		WHERE id = $1`,
		r.ID, r.Name, r.WebhookURL, r.WebhookSecret, r.IsLocked,
		r.ChatChannel, r.RecordingType, r.RecordingTrigger,
	)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var r models.Room
	err := row.Scan(&r.ID, &r.Name, &r.UserID, &r.WebhookURL, &r.WebhookSecret, &r.IsLocked,
		&r.ChatChannel, &r.RecordingType, &r.RecordingTrigger)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan room: %w", err)
	}
	return &r, nil
}
