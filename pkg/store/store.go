// Package store is the hand-written persistence layer for meetingscribe.
// The retrieval pack's ent/schema files describe the relational model
// (kept under ent/schema as documentation) but carry no generated
// ent.Client/query-builder code, so queries here are plain pgx/v5 SQL
// rather than an Ent-style fluent builder — structured the way the
// teacher's worker/queue code structures its claim-transaction and
// update calls (context-first, wrapped errors, slog on the hot paths).
package store

import (
	"github.com/codeready-toolchain/meetingscribe/pkg/database"
)

// Store bundles all entity repositories over a single connection pool.
type Store struct {
	Transcripts *TranscriptStore
	Recordings  *RecordingStore
	Meetings    *MeetingStore
	Rooms       *RoomStore
	Consents    *ConsentStore
	Events      *EventStore
	Workflows   *WorkflowStore
}

// New builds a Store backed by client's connection pool.
func New(client *database.Client) *Store {
	pool := client.Pool
	return &Store{
		Transcripts: &TranscriptStore{pool: pool},
		Recordings:  &RecordingStore{pool: pool},
		Meetings:    &MeetingStore{pool: pool},
		Rooms:       &RoomStore{pool: pool},
		Consents:    &ConsentStore{pool: pool},
		Events:      &EventStore{pool: pool},
		Workflows:   &WorkflowStore{pool: pool},
	}
}
