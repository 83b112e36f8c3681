// Package notify implements C10: the three post-finalize notification
// sub-tasks (consent cleanup, chat post, webhook delivery). Grounded on
// the teacher's pkg/slack (chat client) and pkg/retry (webhook backoff),
// adapted from alert-notification delivery to meeting-transcript delivery.
package notify

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/storage"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
)

// consentChecker, transcriptLoader, and audioDeleter are the narrow slices
// of store.ConsentStore, store.TranscriptStore, and storage.Gateway that
// ConsentChecker needs, so tests can substitute fakes instead of a live
// pool and bucket.
type consentChecker interface {
	AnyWithheld(ctx context.Context, meetingID string) (bool, error)
}

type transcriptLoader interface {
	Get(ctx context.Context, id string) (*models.Transcript, error)
	MarkAudioDeleted(ctx context.Context, id string) error
}

type audioDeleter interface {
	Delete(ctx context.Context, key, bucket string) error
}

// ConsentChecker reports whether any participant denied recording consent,
// and deletes the recorded mixdown when they did (spec.md §4.10 step 1).
// Grounded on store.ConsentStore.AnyWithheld and storage.Gateway.Delete,
// both already built for exactly this check.
type ConsentChecker struct {
	consents    consentChecker
	transcripts transcriptLoader
	storage     audioDeleter
}

// NewConsentChecker builds a ConsentChecker.
func NewConsentChecker(consents *store.ConsentStore, transcripts *store.TranscriptStore, gw *storage.Gateway) *ConsentChecker {
	return &ConsentChecker{consents: consents, transcripts: transcripts, storage: gw}
}

// CleanupConsent deletes the transcript's mixed audio object and marks
// audio_deleted=true if any participant in meetingID withheld consent.
// Idempotent: if audio is already marked deleted, does nothing (spec.md
// §4.10: "Never re-create").
func (c *ConsentChecker) CleanupConsent(ctx context.Context, transcriptID, meetingID string) error {
	t, err := c.transcripts.Get(ctx, transcriptID)
	if err != nil {
		return fmt.Errorf("load transcript %s: %w", transcriptID, err)
	}
	if t.AudioDeleted {
		return nil
	}

	withheld, err := c.consents.AnyWithheld(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("check withheld consent for meeting %s: %w", meetingID, err)
	}
	if !withheld {
		return nil
	}

	if err := c.storage.Delete(ctx, t.AudioObjectKey(), ""); err != nil {
		return fmt.Errorf("delete audio object for transcript %s: %w", transcriptID, err)
	}
	if err := c.transcripts.MarkAudioDeleted(ctx, transcriptID); err != nil {
		return fmt.Errorf("mark audio deleted for transcript %s: %w", transcriptID, err)
	}
	return nil
}
