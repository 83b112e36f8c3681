package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptyMix is returned when Mix is called with no valid input tracks
// (spec.md §4.3 edge case "Zero valid inputs: fail with 'empty mix'").
var ErrEmptyMix = errors.New("audio: empty mix")

// Track is one padded (or unpadded, with a residual offset) input to the
// mixdown engine.
type Track struct {
	URL            string
	ResidualOffset float64 // seconds; used when C2 padding was skipped
}

// Mixer implements C3: sum N tracks into one compressed mono/stereo object.
type Mixer struct {
	runner Runner
}

// NewMixer builds a Mixer backed by r.
func NewMixer(r Runner) *Mixer {
	return &Mixer{runner: r}
}

// Mix decodes tracks in lockstep, sums with normalize=0, and encodes the
// result to outputPath as MP3. It returns the output's duration. A single
// track still passes through the canonical transcode without an amix
// filter (spec.md §4.3 edge case).
func (m *Mixer) Mix(ctx context.Context, tracks []Track, outputPath string) (durationMs int64, err error) {
	if len(tracks) == 0 {
		return 0, ErrEmptyMix
	}

	args := []string{"-y"}
	var filterInputs []string
	mixInputs := make([]string, len(tracks))
	for i, t := range tracks {
		args = append(args, "-i", t.URL)
		if t.ResidualOffset > 0 {
			delayMs := int(t.ResidualOffset * 1000)
			filterInputs = append(filterInputs,
				fmt.Sprintf("[%d:a]adelay=%d|%d[a%d]", i, delayMs, delayMs, i))
			mixInputs[i] = fmt.Sprintf("[a%d]", i)
		} else {
			mixInputs[i] = fmt.Sprintf("[%d:a]", i)
		}
	}

	var filterComplex string

	if len(tracks) == 1 {
		// Single-track: no amix filter, still transcode to canonical format.
		if len(filterInputs) > 0 {
			filterComplex = filterInputs[0] + ";" + mixInputs[0] + "anull[out]"
		}
	} else {
		parts := append([]string{}, filterInputs...)
		parts = append(parts, fmt.Sprintf("%samix=inputs=%d:normalize=0[out]",
			strings.Join(mixInputs, ""), len(tracks)))
		filterComplex = strings.Join(parts, ";")
	}

	if filterComplex != "" {
		args = append(args, "-filter_complex", filterComplex, "-map", "[out]")
	} else {
		args = append(args, "-map", "0:a")
	}

	args = append(args,
		"-ar", "48000",
		"-c:a", "libmp3lame",
		"-f", "mp3",
		outputPath,
	)

	if _, err := m.runner.Run(ctx, "ffmpeg", args...); err != nil {
		return 0, fmt.Errorf("mixdown %d tracks: %w", len(tracks), err)
	}

	return m.probeDurationMs(ctx, outputPath)
}

func (m *Mixer) probeDurationMs(ctx context.Context, path string) (int64, error) {
	out, err := m.runner.Run(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("probe mixdown duration: %w", err)
	}

	var result struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}

	seconds, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration value %q: %w", result.Format.Duration, err)
	}
	return int64(seconds * 1000), nil
}
