package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// WaveformBuckets is the fixed output length for C4 (spec.md §4.4).
const WaveformBuckets = 255

// WaveformExtractor implements C4: decode mixed audio to raw PCM and reduce
// it to a fixed-length peak-magnitude sequence, purely for UI display.
type WaveformExtractor struct {
	runner Runner
}

// NewWaveformExtractor builds a WaveformExtractor backed by r.
func NewWaveformExtractor(r Runner) *WaveformExtractor {
	return &WaveformExtractor{runner: r}
}

// Extract decodes audioURL to mono 16-bit PCM and returns WaveformBuckets
// non-negative peak magnitudes, one per equally spaced time bucket.
func (w *WaveformExtractor) Extract(ctx context.Context, audioURL string) ([]float64, error) {
	pcm, err := w.decodeToPCM(ctx, audioURL)
	if err != nil {
		return nil, fmt.Errorf("decode %s to pcm: %w", audioURL, err)
	}
	return PeaksFromPCM(pcm, WaveformBuckets), nil
}

func (w *WaveformExtractor) decodeToPCM(ctx context.Context, audioURL string) ([]byte, error) {
	// ffmpeg writes raw little-endian 16-bit mono PCM to stdout.
	return w.runner.Run(ctx, "ffmpeg",
		"-v", "error",
		"-i", audioURL,
		"-f", "s16le",
		"-ac", "1",
		"-ar", "16000",
		"pipe:1",
	)
}

// PeaksFromPCM reduces a little-endian 16-bit mono PCM buffer to buckets
// non-negative peak magnitudes, normalized to [0,1].
func PeaksFromPCM(pcm []byte, buckets int) []float64 {
	samples := len(pcm) / 2
	out := make([]float64, buckets)
	if samples == 0 || buckets == 0 {
		return out
	}

	samplesPerBucket := float64(samples) / float64(buckets)
	for b := 0; b < buckets; b++ {
		start := int(float64(b) * samplesPerBucket)
		end := int(float64(b+1) * samplesPerBucket)
		if end > samples {
			end = samples
		}
		var peak int
		for i := start; i < end; i++ {
			v := int(int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2])))
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
		out[b] = float64(peak) / float64(math.MaxInt16)
	}
	return out
}
