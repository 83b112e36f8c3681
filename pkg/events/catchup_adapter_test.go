package events

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// mockEventLister implements eventLister for testing the adapter.
type mockEventLister struct {
	events []*models.Event
	err    error
}

func (m *mockEventLister) ListSince(_ context.Context, _ string, _ int64) ([]*models.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.events, nil
}

func TestEventStoreAdapter_GetCatchupEvents(t *testing.T) {
	lister := &mockEventLister{
		events: []*models.Event{
			{ID: 10, Payload: map[string]interface{}{"type": models.EventTypeDagStatus, "seq": float64(1)}},
			{ID: 20, Payload: map[string]interface{}{"type": models.EventTypeDagStatus, "seq": float64(2)}},
		},
	}

	adapter := NewEventStoreAdapter(lister)
	events, err := adapter.GetCatchupEvents(context.Background(), "transcript:test", 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, 10, events[0].ID)
	assert.Equal(t, 20, events[1].ID)
	assert.Equal(t, models.EventTypeDagStatus, events[0].Payload["type"])
	assert.Equal(t, float64(1), events[0].Payload["seq"])
}

func TestEventStoreAdapter_GetCatchupEvents_WithLimit(t *testing.T) {
	lister := &mockEventLister{
		events: []*models.Event{
			{ID: 1, Payload: map[string]interface{}{"seq": float64(1)}},
			{ID: 2, Payload: map[string]interface{}{"seq": float64(2)}},
			{ID: 3, Payload: map[string]interface{}{"seq": float64(3)}},
		},
	}

	adapter := NewEventStoreAdapter(lister)
	events, err := adapter.GetCatchupEvents(context.Background(), "transcript:test", 0, 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 1, events[0].ID)
	assert.Equal(t, 2, events[1].ID)
}

func TestEventStoreAdapter_GetCatchupEvents_Error(t *testing.T) {
	lister := &mockEventLister{err: fmt.Errorf("database connection lost")}

	adapter := NewEventStoreAdapter(lister)
	events, err := adapter.GetCatchupEvents(context.Background(), "transcript:test", 0, 10)
	assert.Error(t, err)
	assert.Nil(t, events)
	assert.Contains(t, err.Error(), "database connection lost")
}

func TestEventStoreAdapter_GetCatchupEvents_Empty(t *testing.T) {
	lister := &mockEventLister{events: []*models.Event{}}

	adapter := NewEventStoreAdapter(lister)
	events, err := adapter.GetCatchupEvents(context.Background(), "transcript:test", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
