package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// MeetingStore persists models.Meeting rows.
type MeetingStore struct {
	pool *pgxpool.Pool
}

// Create inserts a new meeting.
func (s *MeetingStore) Create(ctx context.Context, m *models.Meeting) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO meeting (id, room_name, room_url, start_date, end_date, user_id, room_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.RoomName, m.RoomURL, m.StartDate, m.EndDate, m.UserID, nullString(&m.RoomID),
	)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}
	return nil
}

// GetByID retrieves a meeting by id.
func (s *MeetingStore) GetByID(ctx context.Context, id string) (*models.Meeting, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, room_name, room_url, start_date, end_date, user_id, room_id
		FROM meeting WHERE id = $1`, id)
	return scanMeeting(row)
}

// GetByRoomName retrieves the most recent meeting created for a room name.
func (s *MeetingStore) GetByRoomName(ctx context.Context, roomName string) (*models.Meeting, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, room_name, room_url, start_date, end_date, user_id, room_id
		FROM meeting WHERE room_name = $1 ORDER BY start_date DESC LIMIT 1`, roomName)
	return scanMeeting(row)
}

// GetLatest returns the most recent still-open meeting for a persistent
// room: end_date in the future and the room not locked, matching how the
// video platform resolves "join the current session" for a named room.
func (s *MeetingStore) GetLatest(ctx context.Context, roomID string, now time.Time) (*models.Meeting, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT m.id, m.room_name, m.room_url, m.start_date, m.end_date, m.user_id, m.room_id
		FROM meeting m
		JOIN room r ON r.id = m.room_id
		WHERE m.room_id = $1 AND r.is_locked = FALSE AND m.end_date > $2
		ORDER BY m.end_date DESC LIMIT 1`, roomID, now)
	return scanMeeting(row)
}

func scanMeeting(row rowScanner) (*models.Meeting, error) {
	var m models.Meeting
	var roomID *string
	err := row.Scan(&m.ID, &m.RoomName, &m.RoomURL, &m.StartDate, &m.EndDate, &m.UserID, &roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan meeting: %w", err)
	}
	if roomID != nil {
		m.RoomID = *roomID
	}
	return &m, nil
}
