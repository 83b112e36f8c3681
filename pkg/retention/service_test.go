package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

type fakeTranscriptLister struct {
	anonymous      []*models.Transcript
	expired        []*models.Transcript
	anonymousErr   error
	expiredErr     error
	markedDeleted  []string
	markDeletedErr error
}

func (f *fakeTranscriptLister) ListExpiredAnonymous(_ context.Context, _ time.Time) ([]*models.Transcript, error) {
	return f.anonymous, f.anonymousErr
}

func (f *fakeTranscriptLister) ListExpired(_ context.Context, _ time.Time) ([]*models.Transcript, error) {
	return f.expired, f.expiredErr
}

func (f *fakeTranscriptLister) MarkAudioDeleted(_ context.Context, id string) error {
	f.markedDeleted = append(f.markedDeleted, id)
	return f.markDeletedErr
}

type fakeEventPruner struct {
	deleted int64
	err     error
}

func (f *fakeEventPruner) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return f.deleted, f.err
}

type fakeAudioDeleter struct {
	deletedKeys []string
	err         error
}

func (f *fakeAudioDeleter) Delete(_ context.Context, key, _ string) error {
	f.deletedKeys = append(f.deletedKeys, key)
	return f.err
}

func testConfig() *config.RetentionConfig {
	return &config.RetentionConfig{
		TranscriptRetentionDays: 365,
		AnonymousRetentionHours: 24,
		EventTTL:                1 * time.Hour,
		CleanupInterval:         1 * time.Hour,
	}
}

func TestRunAll_PurgesAnonymousAudio(t *testing.T) {
	transcripts := &fakeTranscriptLister{
		anonymous: []*models.Transcript{{ID: "t-1"}, {ID: "t-2", AudioDeleted: true}},
	}
	audio := &fakeAudioDeleter{}
	events := &fakeEventPruner{}

	svc := &Service{config: testConfig(), transcripts: transcripts, events: events, storage: audio}
	svc.runAll(context.Background())

	assert.Equal(t, []string{"t-1/audio.mp3"}, audio.deletedKeys)
	assert.Equal(t, []string{"t-1"}, transcripts.markedDeleted)
}

func TestRunAll_PurgesExpiredNamedAudio(t *testing.T) {
	transcripts := &fakeTranscriptLister{
		expired: []*models.Transcript{{ID: "t-3"}},
	}
	audio := &fakeAudioDeleter{}
	events := &fakeEventPruner{}

	svc := &Service{config: testConfig(), transcripts: transcripts, events: events, storage: audio}
	svc.runAll(context.Background())

	assert.Equal(t, []string{"t-3/audio.mp3"}, audio.deletedKeys)
	assert.Equal(t, []string{"t-3"}, transcripts.markedDeleted)
}

func TestRunAll_SkipsAlreadyDeletedAudio(t *testing.T) {
	transcripts := &fakeTranscriptLister{
		anonymous: []*models.Transcript{{ID: "t-1", AudioDeleted: true}},
	}
	audio := &fakeAudioDeleter{}
	events := &fakeEventPruner{}

	svc := &Service{config: testConfig(), transcripts: transcripts, events: events, storage: audio}
	svc.runAll(context.Background())

	assert.Empty(t, audio.deletedKeys)
	assert.Empty(t, transcripts.markedDeleted)
}

func TestRunAll_ContinuesPastPerTranscriptStorageError(t *testing.T) {
	transcripts := &fakeTranscriptLister{
		anonymous: []*models.Transcript{{ID: "t-1"}, {ID: "t-2"}},
	}
	audio := &fakeAudioDeleter{err: errors.New("s3 unavailable")}
	events := &fakeEventPruner{}

	svc := &Service{config: testConfig(), transcripts: transcripts, events: events, storage: audio}
	svc.runAll(context.Background())

	assert.Equal(t, []string{"t-1/audio.mp3", "t-2/audio.mp3"}, audio.deletedKeys)
	assert.Empty(t, transcripts.markedDeleted, "a failed delete must not be marked as deleted")
}

func TestRunAll_CleansUpOrphanedEvents(t *testing.T) {
	transcripts := &fakeTranscriptLister{}
	audio := &fakeAudioDeleter{}
	events := &fakeEventPruner{deleted: 7}

	svc := &Service{config: testConfig(), transcripts: transcripts, events: events, storage: audio}
	svc.runAll(context.Background())
}

func TestRunAll_LogsButDoesNotPanicOnListError(t *testing.T) {
	transcripts := &fakeTranscriptLister{anonymousErr: errors.New("db down"), expiredErr: errors.New("db down")}
	audio := &fakeAudioDeleter{}
	events := &fakeEventPruner{err: errors.New("db down")}

	svc := &Service{config: testConfig(), transcripts: transcripts, events: events, storage: audio}
	svc.runAll(context.Background())

	assert.Empty(t, audio.deletedKeys)
}

func TestService_StartStop(t *testing.T) {
	transcripts := &fakeTranscriptLister{}
	audio := &fakeAudioDeleter{}
	events := &fakeEventPruner{}

	cfg := testConfig()
	cfg.CleanupInterval = time.Hour
	svc := &Service{config: cfg, transcripts: transcripts, events: events, storage: audio}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.Start(ctx)
	svc.Stop() // completing without deadlock is the assertion
	assert.NotNil(t, svc.done, "Start must have initialized the done channel")
}
