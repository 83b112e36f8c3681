package models

import "time"

// Meeting is the calendar/room-session entity that owns zero or more
// Recordings. Out of scope for CRUD (spec.md §1) but required here as the
// join point between Recording and Room.
type Meeting struct {
	ID        string    `json:"id"`
	RoomName  string    `json:"room_name"`
	RoomURL   string    `json:"room_url"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	UserID    *string   `json:"user_id,omitempty"`
	RoomID    string    `json:"room_id"`
}

// Room holds the chat-integration and webhook configuration for outbound
// notifications (C10). See spec.md §4.10 and §6.
type Room struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	UserID          *string `json:"user_id,omitempty"`
	WebhookURL      string `json:"webhook_url,omitempty"`
	WebhookSecret   string `json:"webhook_secret,omitempty"`
	IsLocked        bool   `json:"is_locked"`
	ChatChannel     string `json:"chat_channel,omitempty"`      // Slack channel id; empty => chat disabled
	RecordingType   string `json:"recording_type,omitempty"`
	RecordingTrigger string `json:"recording_trigger,omitempty"`
}

// HasWebhook reports whether the room has a webhook configured.
func (r Room) HasWebhook() bool {
	return r.WebhookURL != ""
}

// HasChat reports whether the room has a chat integration configured.
func (r Room) HasChat() bool {
	return r.ChatChannel != ""
}

// MeetingConsent records a single participant's consent decision for a
// given meeting.
type MeetingConsent struct {
	MeetingID        string    `json:"meeting_id"`
	UserID           string    `json:"user_id"`
	ConsentGiven     bool      `json:"consent_given"`
	ConsentTimestamp time.Time `json:"consent_timestamp"`
}
