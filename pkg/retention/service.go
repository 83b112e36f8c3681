// Package retention implements the age-based cleanup sweep described in
// spec.md §8/§9: periodically delete recorded audio past its retention
// window and prune event rows older than EventTTL. Consent-triggered immediate
// deletion is handled separately, per workflow run, by
// pkg/notify.ConsentChecker — this package only ages things out.
//
// Grounded on the teacher's pkg/cleanup.Service: the same
// config/cancel/done shape, the same Start/Stop/run/runAll split, and the
// same "log only on error or a non-zero affected count" logging style.
package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/storage"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
)

// transcriptLister, eventPruner, and audioDeleter are the narrow slices of
// store.TranscriptStore, store.EventStore, and storage.Gateway that Service
// needs, mirroring pkg/notify.ConsentChecker's consentChecker/
// transcriptLoader/audioDeleter split so tests can substitute fakes instead
// of a live pool and bucket.
type transcriptLister interface {
	ListExpiredAnonymous(ctx context.Context, cutoff time.Time) ([]*models.Transcript, error)
	ListExpired(ctx context.Context, cutoff time.Time) ([]*models.Transcript, error)
	MarkAudioDeleted(ctx context.Context, id string) error
}

type eventPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type audioDeleter interface {
	Delete(ctx context.Context, key, bucket string) error
}

// Service periodically enforces retention policies:
//   - Deletes audio for anonymous transcripts past AnonymousRetentionHours
//   - Deletes audio for named-meeting transcripts past TranscriptRetentionDays
//   - Removes every event row older than EventTTL, whatever its transcript
//
// All three operations are idempotent and safe to run from multiple pods;
// locker makes that redundant work optional rather than load-bearing.
type Service struct {
	config      *config.RetentionConfig
	transcripts transcriptLister
	events      eventPruner
	storage     audioDeleter
	locker      Locker

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService builds a Service. locker may be nil, which disables the
// cross-pod lock: every pod runs the sweep on its own ticker, which is
// safe (each operation below is independently idempotent) but redundant.
func NewService(cfg *config.RetentionConfig, st *store.Store, gw *storage.Gateway, locker Locker) *Service {
	return &Service{
		config:      cfg,
		transcripts: st.Transcripts,
		events:      st.Events,
		storage:     gw,
		locker:      locker,
	}
}

// Start launches the background sweep loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Retention service started",
		"transcript_retention_days", s.config.TranscriptRetentionDays,
		"anonymous_retention_hours", s.config.AnonymousRetentionHours,
		"event_ttl", s.config.EventTTL,
		"interval", s.config.CleanupInterval)
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Retention service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.sweep(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep acquires the optional distributed lock before running the sweep.
// A locker that's nil or fails to acquire just means this pod sits the
// round out; the next tick tries again.
func (s *Service) sweep(ctx context.Context) {
	if s.locker != nil {
		acquired, release, err := s.locker.TryAcquire(ctx, lockKey, s.config.CleanupInterval)
		if err != nil {
			slog.Error("Retention: lock acquisition failed, running unguarded", "error", err)
		} else if !acquired {
			slog.Debug("Retention: another pod holds the sweep lock, skipping this round")
			return
		} else {
			defer release(ctx)
		}
	}
	s.runAll(ctx)
}

func (s *Service) runAll(ctx context.Context) {
	s.purgeAnonymousAudio(ctx)
	s.purgeExpiredAudio(ctx)
	s.cleanupOrphanedEvents(ctx)
}

func (s *Service) purgeAnonymousAudio(ctx context.Context) {
	cutoff := time.Now().Add(-time.Duration(s.config.AnonymousRetentionHours) * time.Hour)
	transcripts, err := s.transcripts.ListExpiredAnonymous(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: list expired anonymous transcripts failed", "error", err)
		return
	}
	count := s.purgeAudio(ctx, transcripts)
	if count > 0 {
		slog.Info("Retention: purged anonymous transcript audio", "count", count)
	}
}

func (s *Service) purgeExpiredAudio(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.TranscriptRetentionDays)
	transcripts, err := s.transcripts.ListExpired(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: list expired transcripts failed", "error", err)
		return
	}
	count := s.purgeAudio(ctx, transcripts)
	if count > 0 {
		slog.Info("Retention: purged expired transcript audio", "count", count)
	}
}

// purgeAudio deletes each transcript's mixed audio object and marks
// audio_deleted, mirroring notify.ConsentChecker.CleanupConsent's
// idempotency guard (a transcript already marked is skipped, never
// re-fetched from storage). A single object's failure doesn't block the
// rest of the batch; it's picked up again on the next sweep.
func (s *Service) purgeAudio(ctx context.Context, transcripts []*models.Transcript) int {
	purged := 0
	for _, t := range transcripts {
		if t.AudioDeleted {
			continue
		}
		if err := s.storage.Delete(ctx, t.AudioObjectKey(), ""); err != nil {
			slog.Error("Retention: delete audio object failed", "transcript_id", t.ID, "error", err)
			continue
		}
		if err := s.transcripts.MarkAudioDeleted(ctx, t.ID); err != nil {
			slog.Error("Retention: mark audio deleted failed", "transcript_id", t.ID, "error", err)
			continue
		}
		purged++
	}
	return purged
}

func (s *Service) cleanupOrphanedEvents(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.EventTTL)
	count, err := s.events.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("Retention: event cleanup failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention: cleaned up orphaned events", "count", count)
	}
}
