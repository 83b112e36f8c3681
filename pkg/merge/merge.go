// Package merge implements C6: merge per-track word streams into one
// globally time-ordered stream, and the single-track diarization-tagging
// alternative. Grounded on spec.md §4.6's explicit algorithm; no pack
// dependency covers stable k-way merge or interval bookkeeping, so this is
// plain Go over pkg/models.Word/DiarizationSegment (stdlib sort is the
// idiomatic choice here — there is no merge/diarization library anywhere in
// the retrieval pack to ground a third-party alternative on).
package merge

import (
	"sort"
	"unicode"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
)

// Result is C6's output contract: {words, word_count}.
type Result struct {
	Words     []models.Word `json:"words"`
	WordCount int           `json:"word_count"`
}

// Merge performs a stable k-way merge of per-track word streams keyed on
// Start, breaking ties by Speaker ascending (spec.md §4.6).
func Merge(tracks [][]models.Word) Result {
	var all []models.Word
	for _, t := range tracks {
		all = append(all, t...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].Speaker < all[j].Speaker
	})

	return Result{Words: all, WordCount: len(all)}
}

// DiarizationSegment is one speaker-attributed time range from a
// diarization client, used on the single-mixed-track path.
type DiarizationSegment struct {
	Start   float64
	End     float64
	Speaker int
}

// TagBySpeakerSegments assigns Speaker to each word in a single-track word
// stream using the diarization segments, per the spec.md §4.6 algorithm:
// drop segments with no contained words, remove overlaps (keep the
// longer), merge adjacent same-speaker segments, then sweep words assigning
// speaker by containing segment — gap words inherit the previous speaker
// unless the previous word ended with terminal punctuation or the current
// word starts upper-case, in which case they inherit the next segment's
// speaker. Words past the last segment inherit its speaker.
func TagBySpeakerSegments(words []models.Word, segments []DiarizationSegment) []models.Word {
	segments = dropEmptySegments(words, segments)
	segments = removeOverlaps(segments)
	segments = mergeAdjacentSameSpeaker(segments)

	out := make([]models.Word, len(words))
	copy(out, words)

	if len(segments) == 0 {
		return out
	}

	for i := range out {
		w := &out[i]
		seg, segIdx := containingSegment(segments, w.Start)
		if seg != nil {
			w.Speaker = seg.Speaker
			continue
		}

		// Gap word: decide whether it belongs to the previous or next segment.
		prevIdx := segIdx - 1
		switch {
		case prevIdx < 0:
			w.Speaker = segments[0].Speaker
		case segIdx >= len(segments):
			w.Speaker = segments[len(segments)-1].Speaker
		default:
			prevWord := previousWord(out, i)
			if inheritsPrevious(prevWord, w) {
				w.Speaker = segments[prevIdx].Speaker
			} else {
				w.Speaker = segments[segIdx].Speaker
			}
		}
	}

	return out
}

func dropEmptySegments(words []models.Word, segments []DiarizationSegment) []DiarizationSegment {
	var out []DiarizationSegment
	for _, s := range segments {
		hasWord := false
		for _, w := range words {
			if w.Start >= s.Start && w.Start < s.End {
				hasWord = true
				break
			}
		}
		if hasWord {
			out = append(out, s)
		}
	}
	return out
}

// removeOverlaps keeps the longer of any two overlapping segments.
func removeOverlaps(segments []DiarizationSegment) []DiarizationSegment {
	sort.Slice(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })

	var out []DiarizationSegment
	for _, s := range segments {
		if len(out) == 0 {
			out = append(out, s)
			continue
		}
		last := &out[len(out)-1]
		if s.Start < last.End {
			// overlap: keep the longer
			if (s.End - s.Start) > (last.End - last.Start) {
				*last = s
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

func mergeAdjacentSameSpeaker(segments []DiarizationSegment) []DiarizationSegment {
	if len(segments) == 0 {
		return segments
	}
	var out []DiarizationSegment
	out = append(out, segments[0])
	for _, s := range segments[1:] {
		last := &out[len(out)-1]
		if s.Speaker == last.Speaker {
			last.End = s.End
			continue
		}
		out = append(out, s)
	}
	return out
}

// containingSegment returns the segment containing t, or nil and the index
// where a containing segment would be inserted (for gap handling).
func containingSegment(segments []DiarizationSegment, t float64) (*DiarizationSegment, int) {
	for i, s := range segments {
		if t >= s.Start && t < s.End {
			return &segments[i], i
		}
		if t < s.Start {
			return nil, i
		}
	}
	return nil, len(segments)
}

func previousWord(words []models.Word, i int) *models.Word {
	if i == 0 {
		return nil
	}
	return &words[i-1]
}

func inheritsPrevious(prev *models.Word, cur *models.Word) bool {
	if prev == nil {
		return false
	}
	if endsWithTerminalPunctuation(prev.Text) {
		return false
	}
	if startsUppercase(cur.Text) {
		return false
	}
	return true
}

func endsWithTerminalPunctuation(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)
	last := r[len(r)-1]
	return last == '.' || last == '?' || last == '!'
}

func startsUppercase(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	return unicode.IsUpper(r)
}
