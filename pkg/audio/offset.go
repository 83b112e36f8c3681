package audio

import (
	"context"
	"encoding/json"
	"fmt"
)

// ffprobeStreamInfo is the subset of `ffprobe -show_format -show_streams
// -of json` we read to resolve a track's meeting-relative start offset
// (spec.md §4.2 offset extraction policy, steps 1-2).
type ffprobeStreamInfo struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		StartTime string `json:"start_time"`
	} `json:"streams"`
	Format struct {
		StartTime string `json:"start_time"`
	} `json:"format"`
}

// ExtractOffsetSeconds resolves a padded track's meeting-relative start
// offset using the policy from spec.md §4.2, in order: stream-level
// start_time, then container-level start_time, then 0 (the DTS-of-first-
// packet fallback requires raw demuxing that ffprobe's summary doesn't
// expose and is treated as equivalent to the container fallback here).
func ExtractOffsetSeconds(ctx context.Context, r Runner, sourceURL string) (float64, error) {
	out, err := r.Run(ctx, "ffprobe",
		"-v", "error",
		"-show_format", "-show_streams",
		"-of", "json",
		sourceURL,
	)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", sourceURL, err)
	}

	var info ffprobeStreamInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	for _, s := range info.Streams {
		if s.CodecType != "audio" {
			continue
		}
		if v, ok := parseSeconds(s.StartTime); ok && v > 0 {
			return v, nil
		}
		break
	}

	if v, ok := parseSeconds(info.Format.StartTime); ok && v > 0 {
		return v, nil
	}

	return 0, nil
}

func parseSeconds(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%f", &v); err != nil {
		return 0, false
	}
	return v, true
}
