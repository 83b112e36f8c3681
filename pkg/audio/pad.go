package audio

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/codeready-toolchain/meetingscribe/pkg/retry"
)

// PadPolicy is the C2 retry policy: up to 3 attempts, retried only while
// the total elapsed time stays within 300s (MaxElapsed is an overall budget,
// not a per-attempt limit). A single ffmpeg attempt has no timeout of its
// own; it runs until it exits or ctx is done.
var PadPolicy = retry.Policy{
	MaxAttempts: 3,
	MaxElapsed:  300 * time.Second,
}

// Padder implements C2: prepend digital silence so a track's sample 0
// aligns to the meeting's t=0.
type Padder struct {
	runner Runner
}

// NewPadder builds a Padder backed by r (ExecRunner in production).
func NewPadder(r Runner) *Padder {
	return &Padder{runner: r}
}

// Pad resolves sourceURL's offset and, if positive, encodes a new WebM/Opus
// stereo 48kHz object at outputPath with that much silence prepended. If
// the resolved offset is <=0 it short-circuits: no output is written and
// ok=false signals the caller should use the source key unchanged (spec.md
// §4.2: "must short-circuit ... to avoid a no-op re-encode").
func (p *Padder) Pad(ctx context.Context, sourceURL, outputPath string) (offsetSeconds float64, ok bool, err error) {
	offsetSeconds, err = ExtractOffsetSeconds(ctx, p.runner, sourceURL)
	if err != nil {
		return 0, false, fmt.Errorf("extract offset: %w", err)
	}
	if offsetSeconds <= 0 {
		return 0, false, nil
	}

	delayMs := int(math.Floor(offsetSeconds * 1000))

	err = retry.Do(ctx, PadPolicy, "pad_track", func(ctx context.Context) error {
		_, runErr := p.runner.Run(ctx, "ffmpeg",
			"-y",
			"-i", sourceURL,
			"-af", fmt.Sprintf("adelay=%d|%d", delayMs, delayMs),
			"-ar", "48000",
			"-ac", "2",
			"-c:a", "libopus",
			"-f", "webm",
			outputPath,
		)
		return runErr
	})
	if err != nil {
		return 0, false, fmt.Errorf("pad track %s: %w", sourceURL, err)
	}

	return offsetSeconds, true, nil
}
