package models

import (
	"strconv"
	"time"
)

// Status is the lifecycle state of a Transcript.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusEnded      Status = "ended"
	StatusError      Status = "error"
)

// Transcript is the root aggregate of the system: one per processed meeting
// recording. See spec.md §3.
type Transcript struct {
	ID              string        `json:"id"`
	Status          Status        `json:"status"`
	SourceLanguage  string        `json:"source_language"`
	TargetLanguage  string        `json:"target_language"`
	Duration        float64       `json:"duration"` // seconds
	Title           string        `json:"title"`
	ShortSummary    string        `json:"short_summary"`
	LongSummary     string        `json:"long_summary"`
	WebVTT          string        `json:"webvtt"` // derived, regenerated on every topics update
	Waveform        []float64     `json:"waveform"`
	Topics          []Topic       `json:"topics"`
	Participants    []Participant `json:"participants"`
	WorkflowRunID   string        `json:"workflow_run_id,omitempty"`
	AudioDeleted    bool          `json:"audio_deleted"`
	ZulipMessageID  string        `json:"zulip_message_id,omitempty"`
	RecordingID     string        `json:"recording_id"`
	RoomID          string        `json:"room_id"`
	UserID          *string       `json:"user_id,omitempty"` // nil for anonymous
	ErrorMessage    string        `json:"error_message,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// CanTransitionTo enforces the monotonic status invariant from spec.md §3:
// idle -> processing -> {ended, error}, except an operator force-replay may
// reset ended/error back to processing.
func (t Transcript) CanTransitionTo(next Status) bool {
	switch t.Status {
	case StatusIdle:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusEnded || next == StatusError
	case StatusEnded, StatusError:
		return next == StatusProcessing // operator-forced re-process
	default:
		return false
	}
}

// IsAnonymous reports whether the transcript has no associated user — the
// case eligible for the retention sweep in spec.md §3.
func (t Transcript) IsAnonymous() bool {
	return t.UserID == nil
}

// AudioObjectKey returns the canonical mixdown key for this transcript,
// per spec.md §6 object storage layout.
func (t Transcript) AudioObjectKey() string {
	return t.ID + "/audio.mp3"
}

// WaveformObjectKey returns the canonical waveform peaks key.
func (t Transcript) WaveformObjectKey() string {
	return t.ID + "/waveform.json"
}

// PaddedTrackObjectKey returns the canonical padded per-track key for track i.
func (t Transcript) PaddedTrackObjectKey(i int) string {
	return t.ID + "/tracks/padded_" + strconv.Itoa(i) + ".webm"
}
