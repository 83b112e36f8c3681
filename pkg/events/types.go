// Package events provides real-time event delivery via WebSocket and
// PostgreSQL NOTIFY/LISTEN for cross-pod distribution of a transcript's
// DAG task progress (spec.md §4.9, C9).
//
// meetingscribe emits a single persistent event type, DAG_STATUS, on every
// task state change: the full current task list for the transcript's
// workflow run (an authoritative snapshot, never a delta). A reconnecting
// client replays missed snapshots via the catchup mechanism below, keyed
// by the monotonic event id it last saw.
package events

// ClientMessage is the JSON structure for client → server WebSocket messages.
type ClientMessage struct {
	Action      string `json:"action"`                  // "subscribe", "unsubscribe", "catchup", "ping"
	Channel     string `json:"channel,omitempty"`       // channel name (e.g., "transcript:abc-123")
	LastEventID *int   `json:"last_event_id,omitempty"` // for catchup
}
