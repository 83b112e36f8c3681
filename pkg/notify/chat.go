package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/slack"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
)

const chatPostTimeout = 10 * time.Second

// messageIDSetter is the slice of store.TranscriptStore that ChatNotifier
// needs, narrowed so tests can substitute a fake instead of a live pool.
type messageIDSetter interface {
	SetZulipMessageID(ctx context.Context, id, messageID string) error
}

// ChatNotifier posts a transcript's title and short summary to a room's
// configured chat channel (spec.md §4.10 step 2). Grounded on the teacher's
// pkg/slack client, adapted from threaded alert notifications to a single
// post-finalize announcement.
type ChatNotifier struct {
	client      *slack.Client
	transcripts messageIDSetter
	frontendURL string
}

// NewChatNotifier builds a ChatNotifier. Returns nil if chat is disabled in
// system config, matching the teacher's nil-safe, fail-open service pattern.
func NewChatNotifier(cfg *config.SlackConfig, token string, transcripts *store.TranscriptStore, frontendURL string) *ChatNotifier {
	if cfg == nil || !cfg.Enabled || token == "" {
		return nil
	}
	return &ChatNotifier{
		client:      slack.NewClient(token),
		transcripts: transcripts,
		frontendURL: frontendURL,
	}
}

// NotifyChat posts the transcript to room's chat channel and records the
// returned message id on the transcript for future reference. A no-op if n
// is nil or the room has no chat channel configured.
func (n *ChatNotifier) NotifyChat(ctx context.Context, t *models.Transcript, room *models.Room) error {
	if n == nil || !room.HasChat() {
		return nil
	}

	blocks := slack.BuildTranscriptReadyMessage(t, n.frontendURL)
	ts, err := n.client.PostMessage(ctx, room.ChatChannel, blocks, chatPostTimeout)
	if err != nil {
		return fmt.Errorf("post chat message for transcript %s: %w", t.ID, err)
	}

	if err := n.transcripts.SetZulipMessageID(ctx, t.ID, ts); err != nil {
		return fmt.Errorf("record chat message id for transcript %s: %w", t.ID, err)
	}
	return nil
}
