package workflow

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// buildWebVTT renders the merged word stream, grouped by topic, as a WebVTT
// track — one cue per word, matching the player's word-level highlighting
// (spec.md §3: "webvtt — derived, regenerated on every topics update").
// No captioning library exists anywhere in the retrieval pack, and the
// format itself is a handful of fixed literal lines per cue, so this stays
// plain string building rather than reaching for a dependency to produce
// four lines of boilerplate per word.
func buildWebVTT(topics []models.Topic) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")

	n := 0
	for _, topic := range topics {
		for _, w := range topic.Words {
			n++
			fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", n, vttTimestamp(w.Start), vttTimestamp(w.End), w.Text)
		}
	}
	return b.String()
}

func vttTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int64(seconds * 1000)
	ms := totalMs % 1000
	totalSec := totalMs / 1000
	s := totalSec % 60
	totalMin := totalSec / 60
	m := totalMin % 60
	h := totalMin / 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
