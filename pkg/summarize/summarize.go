// Package summarize implements C8: three independent LLM calls deriving a
// meeting title, long summary, and short summary from the segmented topic
// list. Grounded on pkg/llmclient (itself grounded on pkg/asr's HTTP-client
// rationale) and spec.md §4.8's parallel-calls-with-independent-retry
// contract.
package summarize

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/codeready-toolchain/meetingscribe/pkg/llmclient"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/retry"
)

// Result holds C8's three outputs. Any field may be empty if its call
// exhausted retries; spec.md §4.8 says the transcript still finalizes with
// status=ended in that case, not status=error.
type Result struct {
	Title        string
	LongSummary  string
	ShortSummary string
}

// TitlePolicy, LongSummaryPolicy, ShortSummaryPolicy are C8's three
// per-call retry policies (spec.md §4.8: 3 attempts, 60-300s timeout —
// the timeout itself is enforced by the caller via context, these set the
// attempt/backoff shape shared with the rest of the task layer).
var (
	TitlePolicy        = retry.Policy{MaxAttempts: 3}
	LongSummaryPolicy  = retry.Policy{MaxAttempts: 3}
	ShortSummaryPolicy = retry.Policy{MaxAttempts: 3}
)

// Generator derives title/long/short summaries from a topic list.
type Generator struct {
	client *llmclient.Client
}

// NewGenerator builds a Generator.
func NewGenerator(client *llmclient.Client) *Generator {
	return &Generator{client: client}
}

// Generate runs the three calls concurrently and returns whatever
// completed, leaving failed fields empty rather than failing the call.
func (g *Generator) Generate(ctx context.Context, topics []models.Topic, language string) Result {
	var result Result
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		result.Title = g.generateOne(ctx, TitlePolicy, "title_summary", titlePrompt(topics, language))
	}()
	go func() {
		defer wg.Done()
		result.LongSummary = g.generateOne(ctx, LongSummaryPolicy, "long_summary", longSummaryPrompt(topics, language))
	}()
	go func() {
		defer wg.Done()
		result.ShortSummary = g.generateOne(ctx, ShortSummaryPolicy, "short_summary", shortSummaryPrompt(topics, language))
	}()
	wg.Wait()

	return result
}

// GenerateTitle runs only the title call — used by pkg/workflow's
// title_summary task, which the DAG schedules and retries independently of
// long_summary/short_summary (spec.md §4.11's task table gives each its own
// timeout/retry entry).
func (g *Generator) GenerateTitle(ctx context.Context, topics []models.Topic, language string) string {
	return g.generateOne(ctx, TitlePolicy, "title_summary", titlePrompt(topics, language))
}

// GenerateLongSummary runs only the long-summary call.
func (g *Generator) GenerateLongSummary(ctx context.Context, topics []models.Topic, language string) string {
	return g.generateOne(ctx, LongSummaryPolicy, "long_summary", longSummaryPrompt(topics, language))
}

// GenerateShortSummary runs only the short-summary call.
func (g *Generator) GenerateShortSummary(ctx context.Context, topics []models.Topic, language string) string {
	return g.generateOne(ctx, ShortSummaryPolicy, "short_summary", shortSummaryPrompt(topics, language))
}

func (g *Generator) generateOne(ctx context.Context, policy retry.Policy, label, prompt string) string {
	var out string
	err := retry.Do(ctx, policy, label, func(ctx context.Context) error {
		text, err := g.client.Complete(ctx, prompt, false)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	if err != nil {
		return ""
	}
	return out
}

func titlePrompt(topics []models.Topic, language string) string {
	return fmt.Sprintf("Language: %s\nCombine these segment titles into a single concise meeting title:\n\n%s",
		language, strings.Join(titles(topics), "\n"))
}

func longSummaryPrompt(topics []models.Topic, language string) string {
	return fmt.Sprintf("Language: %s\nWrite a multi-paragraph or bulleted summary of this meeting from its segment summaries:\n\n%s",
		language, strings.Join(summaries(topics), "\n\n"))
}

func shortSummaryPrompt(topics []models.Topic, language string) string {
	return fmt.Sprintf("Language: %s\nWrite a single compact paragraph recapping this meeting from its segment summaries:\n\n%s",
		language, strings.Join(summaries(topics), "\n\n"))
}

func titles(topics []models.Topic) []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Title
	}
	return out
}

func summaries(topics []models.Topic) []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Summary
	}
	return out
}
