package events

import (
	"context"
	"strings"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// eventLister abstracts the catch-up query needed by EventStoreAdapter.
// Implemented by *store.EventStore.
type eventLister interface {
	ListSince(ctx context.Context, transcriptID string, cursor int64) ([]*models.Event, error)
}

// EventStoreAdapter wraps an eventLister to implement CatchupQuerier, the
// interface ConnectionManager uses to serve a reconnecting client's missed
// events (spec.md §4.9: "UI subscribers receive the last snapshot on
// connect and live updates thereafter"). meetingscribe has exactly one
// event channel per transcript (models.TranscriptChannel), so the transcript
// id is the channel name with its "transcript:" prefix removed.
type EventStoreAdapter struct {
	events eventLister
}

// NewEventStoreAdapter creates a CatchupQuerier from an EventStore.
func NewEventStoreAdapter(events eventLister) *EventStoreAdapter {
	return &EventStoreAdapter{events: events}
}

// GetCatchupEvents queries events since sinceID up to limit for the
// catchup mechanism.
func (a *EventStoreAdapter) GetCatchupEvents(ctx context.Context, channel string, sinceID, limit int) ([]CatchupEvent, error) {
	transcriptID := strings.TrimPrefix(channel, "transcript:")
	rows, err := a.events.ListSince(ctx, transcriptID, int64(sinceID))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	result := make([]CatchupEvent, len(rows))
	for i, evt := range rows {
		result[i] = CatchupEvent{ID: int(evt.ID), Payload: evt.Payload}
	}
	return result, nil
}
