package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// ConsentStore persists models.MeetingConsent rows — recording-consent
// decisions per participant per meeting (spec.md §4.10 consent cleanup).
type ConsentStore struct {
	pool *pgxpool.Pool
}

// Upsert records (or updates) a participant's consent decision for a meeting.
func (s *ConsentStore) Upsert(ctx context.Context, c *models.MeetingConsent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO meeting_consent (meeting_id, user_id, consent_given, consent_timestamp)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (meeting_id, user_id) DO UPDATE
		SET consent_given = EXCLUDED.consent_given, consent_timestamp = EXCLUDED.consent_timestamp`,
		c.MeetingID, c.UserID, c.ConsentGiven, c.ConsentTimestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert meeting consent: %w", err)
	}
	return nil
}

// ListByMeeting returns every consent decision recorded for a meeting.
func (s *ConsentStore) ListByMeeting(ctx context.Context, meetingID string) ([]*models.MeetingConsent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT meeting_id, user_id, consent_given, consent_timestamp
		FROM meeting_consent WHERE meeting_id = $1`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("query meeting consents: %w", err)
	}
	defer rows.Close()

	var out []*models.MeetingConsent
	for rows.Next() {
		var c models.MeetingConsent
		if err := rows.Scan(&c.MeetingID, &c.UserID, &c.ConsentGiven, &c.ConsentTimestamp); err != nil {
			return nil, fmt.Errorf("scan meeting consent: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// AnyWithheld reports whether any participant withheld consent for the
// meeting — the trigger condition for the consent-cleanup task (C10),
// which deletes recorded audio rather than processing it further.
func (s *ConsentStore) AnyWithheld(ctx context.Context, meetingID string) (bool, error) {
	var withheld bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM meeting_consent WHERE meeting_id = $1 AND consent_given = FALSE
		)`, meetingID).Scan(&withheld)
	if err != nil {
		return false, fmt.Errorf("check withheld consent: %w", err)
	}
	return withheld, nil
}
