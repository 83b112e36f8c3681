package models

// WebhookPayload is the JSON body sent to a room's configured webhook_url
// after a meeting finishes processing. See spec.md §4.10 and §6.
type WebhookPayload struct {
	TranscriptID  string         `json:"transcript_id"`
	Title         string         `json:"title"`
	ShortSummary  string         `json:"short_summary"`
	LongSummary   string         `json:"long_summary"`
	Topics        []WebhookTopic `json:"topics"`
	Participants  []Participant  `json:"participants"`
	CalendarEvent *CalendarEvent `json:"calendar_event,omitempty"`
	FrontendURL   string         `json:"frontend_url"`
}

// WebhookTopic is a Topic enriched with its per-topic WebVTT rendering.
type WebhookTopic struct {
	Topic
	WebVTT string `json:"webvtt"`
}

// CalendarEvent is an optional ICS-derived calendar event association.
// Populated only when the meeting originated from a polled calendar; the
// ICS polling service itself is out of scope (spec.md §1).
type CalendarEvent struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Location string `json:"location,omitempty"`
}

// DailyWebhookEvent is the inbound event envelope from the video platform
// (spec.md §6, "Recording webhook (in)").
type DailyWebhookEvent struct {
	Type      DailyEventType `json:"type"`
	Recording *DailyRecording `json:"recording,omitempty"`
}

// DailyEventType enumerates the inbound webhook event discriminators.
type DailyEventType string

const (
	DailyEventParticipantJoined    DailyEventType = "participant.joined"
	DailyEventParticipantLeft      DailyEventType = "participant.left"
	DailyEventRecordingStarted     DailyEventType = "recording.started"
	DailyEventRecordingReady       DailyEventType = "recording.ready-to-download"
	DailyEventRecordingError       DailyEventType = "recording.error"
)

// DailyRecording is the recording payload nested in a DailyWebhookEvent.
type DailyRecording struct {
	ID         string   `json:"id"`
	BucketName string   `json:"bucket_name"`
	ObjectKey  string   `json:"object_key,omitempty"`
	TrackKeys  []string `json:"track_keys,omitempty"`
	MeetingID  string   `json:"meeting_id,omitempty"`
}
