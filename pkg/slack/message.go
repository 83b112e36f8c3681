package slack

import (
	"fmt"

	goslack "github.com/slack-go/slack"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

const maxBlockTextLength = 2900

// BuildTranscriptReadyMessage creates Block Kit blocks announcing a finished
// transcript: title, short summary, and a link back into the frontend
// (spec.md §4.10 step 2).
func BuildTranscriptReadyMessage(t *models.Transcript, frontendURL string) []goslack.Block {
	title := t.Title
	if title == "" {
		title = "Untitled meeting"
	}
	header := fmt.Sprintf(":memo: *%s*", title)

	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, header, false, false),
			nil, nil,
		),
	}

	if t.ShortSummary != "" {
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(t.ShortSummary), false, false),
			nil, nil,
		))
	}

	btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Transcript", false, false))
	btn.URL = fmt.Sprintf("%s/transcripts/%s", frontendURL, t.ID)
	blocks = append(blocks, goslack.NewActionBlock("", btn))

	return blocks
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated — view full summary in dashboard)_"
}
