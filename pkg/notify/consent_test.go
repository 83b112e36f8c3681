package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

type fakeConsentChecker struct {
	withheld bool
	err      error
}

func (f *fakeConsentChecker) AnyWithheld(_ context.Context, _ string) (bool, error) {
	return f.withheld, f.err
}

type fakeTranscriptLoader struct {
	transcript     *models.Transcript
	getErr         error
	markedDeleted  bool
	markDeletedErr error
}

func (f *fakeTranscriptLoader) Get(_ context.Context, _ string) (*models.Transcript, error) {
	return f.transcript, f.getErr
}

func (f *fakeTranscriptLoader) MarkAudioDeleted(_ context.Context, _ string) error {
	f.markedDeleted = true
	return f.markDeletedErr
}

type fakeAudioDeleter struct {
	deletedKey string
	err        error
}

func (f *fakeAudioDeleter) Delete(_ context.Context, key, _ string) error {
	f.deletedKey = key
	return f.err
}

func TestCleanupConsent_SkipsWhenAudioAlreadyDeleted(t *testing.T) {
	transcripts := &fakeTranscriptLoader{transcript: &models.Transcript{ID: "t-1", AudioDeleted: true}}
	consents := &fakeConsentChecker{withheld: true}
	storage := &fakeAudioDeleter{}

	c := &ConsentChecker{consents: consents, transcripts: transcripts, storage: storage}
	err := c.CleanupConsent(context.Background(), "t-1", "m-1")
	require.NoError(t, err)
	assert.False(t, transcripts.markedDeleted)
	assert.Empty(t, storage.deletedKey)
}

func TestCleanupConsent_NoOpWhenConsentGiven(t *testing.T) {
	transcripts := &fakeTranscriptLoader{transcript: &models.Transcript{ID: "t-1"}}
	consents := &fakeConsentChecker{withheld: false}
	storage := &fakeAudioDeleter{}

	c := &ConsentChecker{consents: consents, transcripts: transcripts, storage: storage}
	err := c.CleanupConsent(context.Background(), "t-1", "m-1")
	require.NoError(t, err)
	assert.False(t, transcripts.markedDeleted)
	assert.Empty(t, storage.deletedKey)
}

func TestCleanupConsent_DeletesAudioWhenWithheld(t *testing.T) {
	transcripts := &fakeTranscriptLoader{transcript: &models.Transcript{ID: "t-1"}}
	consents := &fakeConsentChecker{withheld: true}
	storage := &fakeAudioDeleter{}

	c := &ConsentChecker{consents: consents, transcripts: transcripts, storage: storage}
	err := c.CleanupConsent(context.Background(), "t-1", "m-1")
	require.NoError(t, err)
	assert.True(t, transcripts.markedDeleted)
	assert.Equal(t, "t-1/audio.mp3", storage.deletedKey)
}

func TestCleanupConsent_PropagatesConsentLookupError(t *testing.T) {
	transcripts := &fakeTranscriptLoader{transcript: &models.Transcript{ID: "t-1"}}
	consents := &fakeConsentChecker{err: errors.New("db down")}

	c := &ConsentChecker{consents: consents, transcripts: transcripts, storage: &fakeAudioDeleter{}}
	err := c.CleanupConsent(context.Background(), "t-1", "m-1")
	assert.Error(t, err)
}
