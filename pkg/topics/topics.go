// Package topics implements C7: break a meeting's global word stream into
// chunks, ask an LLM for a {title, summary} per chunk, and assemble the
// ordered Topic list. Grounded on spec.md §4.7's algorithm and
// pkg/llmclient for the provider call; chunk boundaries are driven by
// config.Defaults.TopicChunkSeconds (a duration budget) rather than a
// token-counting sentence tokenizer, since no tokenizer library exists
// anywhere in the retrieval pack — chunking on accumulated word duration,
// snapped to the next sentence boundary via terminal punctuation, gives
// the same "bounded, sentence-aligned chunk" property spec.md asks for
// without inventing an NLP dependency that isn't grounded in the corpus.
package topics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/llmclient"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/retry"
)

// Policy is the C7 per-chunk retry policy (spec.md §4.7: retry 3x).
var Policy = retry.Policy{MaxAttempts: 3}

// GenericPlaceholderTitle is emitted for a chunk whose LLM call exhausted
// retries, per spec.md §4.7's degraded-topic fallback.
const GenericPlaceholderTitle = "Untitled segment"

// Segmenter breaks a word stream into topics using an LLM provider.
type Segmenter struct {
	client       *llmclient.Client
	chunkSeconds float64
}

// NewSegmenter builds a Segmenter. chunkSeconds is the target chunk
// duration (config.Defaults.TopicChunkSeconds, converted by the caller).
func NewSegmenter(client *llmclient.Client, chunkSeconds int) *Segmenter {
	if chunkSeconds <= 0 {
		chunkSeconds = 120
	}
	return &Segmenter{client: client, chunkSeconds: float64(chunkSeconds)}
}

// NewSegmenterFromDefaults builds a Segmenter using config.Defaults'
// TopicChunkSeconds, falling back to the package default when unset.
func NewSegmenterFromDefaults(client *llmclient.Client, defaults *config.Defaults) *Segmenter {
	chunkSeconds := 0
	if defaults != nil && defaults.TopicChunkSeconds != nil {
		chunkSeconds = *defaults.TopicChunkSeconds
	}
	return NewSegmenter(client, chunkSeconds)
}

type chunkResponse struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Segment chunks words and returns the ordered Topic list (spec.md §4.7
// steps 1-4). Per-chunk LLM calls run concurrently; failures are isolated
// to their own chunk and degrade rather than abort the whole run.
func (s *Segmenter) Segment(ctx context.Context, words []models.Word, language string) []models.Topic {
	chunks := chunkByDuration(words, s.chunkSeconds)
	topics := make([]models.Topic, len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []models.Word) {
			defer wg.Done()
			topics[i] = s.segmentChunk(ctx, chunk, language)
		}(i, chunk)
	}
	wg.Wait()

	return topics
}

func (s *Segmenter) segmentChunk(ctx context.Context, chunk []models.Word, language string) models.Topic {
	var resp chunkResponse

	err := retry.Do(ctx, Policy, "detect_topics", func(ctx context.Context) error {
		raw, err := s.client.Complete(ctx, buildChunkPrompt(chunk, language), true)
		if err != nil {
			return err
		}
		var parsed chunkResponse
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return fmt.Errorf("parse chunk response: %w", err)
		}
		resp = parsed
		return nil
	})

	topic := models.Topic{Words: chunk}
	if len(chunk) > 0 {
		topic.Timestamp = chunk[0].Start
		topic.Duration = chunk[len(chunk)-1].End - topic.Timestamp
	}

	if err != nil {
		topic.Title = GenericPlaceholderTitle
		topic.Summary = leadingSentences(chunk, 2)
		return topic
	}

	topic.Title = resp.Title
	topic.Summary = resp.Summary
	return topic
}

func buildChunkPrompt(chunk []models.Word, language string) string {
	var b strings.Builder
	for i, w := range chunk {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w.Text)
	}
	return fmt.Sprintf(
		"Language: %s\nReturn a JSON object {\"title\": string, \"summary\": string} "+
			"summarizing the following meeting transcript segment using nominalization "+
			"style titles (no verbs, noun-phrase headlines):\n\n%s",
		language, b.String())
}

// chunkByDuration groups words into sequential chunks of roughly
// chunkSeconds each, breaking only after a word ending in terminal
// punctuation: a chunk closes at such a word once it has reached
// chunkSeconds, or when the next word would carry it past chunkSeconds.
func chunkByDuration(words []models.Word, chunkSeconds float64) [][]models.Word {
	if len(words) == 0 {
		return nil
	}

	var chunks [][]models.Word
	start := 0
	chunkStart := words[0].Start

	for i, w := range words {
		elapsed := w.End - chunkStart
		atSentenceBoundary := endsWithTerminalPunctuation(w.Text)
		isLast := i == len(words)-1
		nextExceedsBudget := !isLast && words[i+1].End-chunkStart >= chunkSeconds

		if isLast || (atSentenceBoundary && (elapsed >= chunkSeconds || nextExceedsBudget)) {
			chunks = append(chunks, words[start:i+1])
			start = i + 1
			if start < len(words) {
				chunkStart = words[start].Start
			}
		}
	}

	return chunks
}

func endsWithTerminalPunctuation(s string) bool {
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	return last == '.' || last == '?' || last == '!'
}

func leadingSentences(chunk []models.Word, n int) string {
	var b strings.Builder
	sentences := 0
	for i, w := range chunk {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w.Text)
		if endsWithTerminalPunctuation(w.Text) {
			sentences++
			if sentences >= n {
				break
			}
		}
	}
	return b.String()
}
