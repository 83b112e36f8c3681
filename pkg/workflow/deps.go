package workflow

import (
	"fmt"
	"os"

	"github.com/codeready-toolchain/meetingscribe/pkg/asr"
	"github.com/codeready-toolchain/meetingscribe/pkg/audio"
	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/events"
	"github.com/codeready-toolchain/meetingscribe/pkg/llmclient"
	"github.com/codeready-toolchain/meetingscribe/pkg/notify"
	"github.com/codeready-toolchain/meetingscribe/pkg/storage"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
	"github.com/codeready-toolchain/meetingscribe/pkg/summarize"
	"github.com/codeready-toolchain/meetingscribe/pkg/telemetry"
	"github.com/codeready-toolchain/meetingscribe/pkg/topics"
)

// Dependencies bundles every component a task handler may need. Built once
// at process start and shared read-only across all workers, mirroring the
// teacher's Worker/WorkerPool construction (pkg/queue/pool.go), which hands
// every worker the same ent.Client and SessionExecutor rather than
// recreating them per task.
type Dependencies struct {
	Store    *store.Store
	Storage  *storage.Gateway
	Config   *config.Config
	Padder   *audio.Padder
	Mixer    *audio.Mixer
	Waveform *audio.WaveformExtractor
	ASR      *asr.Client
	Topics   *topics.Segmenter
	Summary  *summarize.Generator
	Chat     *notify.ChatNotifier
	Webhook  *notify.WebhookSender
	Consent  *notify.ConsentChecker
	Events   *events.Publisher

	// Telemetry is optional: a nil value (the zero value of Dependencies)
	// disables task metrics/tracing rather than panicking, so tests that
	// build a bare &Dependencies{} are unaffected.
	Telemetry *telemetry.Recorder
}

// NewDependencies wires every task handler's collaborators from the
// resolved configuration. runner backs both the padder and mixer (an
// audio.ExecRunner in production, a fake in tests). rec may be nil.
func NewDependencies(cfg *config.Config, st *store.Store, gw *storage.Gateway, runner audio.Runner, publisher *events.Publisher, rec *telemetry.Recorder) (*Dependencies, error) {
	asrName := cfg.Defaults.ASRProvider
	asrCfg, err := cfg.GetASRProvider(asrName)
	if err != nil {
		return nil, fmt.Errorf("resolve default ASR provider %q: %w", asrName, err)
	}

	llmName := cfg.Defaults.LLMProvider
	llmCfg, err := cfg.GetLLMProvider(llmName)
	if err != nil {
		return nil, fmt.Errorf("resolve default LLM provider %q: %w", llmName, err)
	}
	llm := llmclient.New(llmCfg)

	var chatToken string
	if cfg.Slack != nil && cfg.Slack.Enabled && cfg.Slack.BotTokenEnv != "" {
		chatToken = os.Getenv(cfg.Slack.BotTokenEnv)
	}

	webhook := notify.NewWebhookSender(cfg.Webhook)
	webhook.SetRecorder(rec)

	return &Dependencies{
		Store:     st,
		Storage:   gw,
		Config:    cfg,
		Padder:    audio.NewPadder(runner),
		Mixer:     audio.NewMixer(runner),
		Waveform:  audio.NewWaveformExtractor(runner),
		ASR:       asr.New(asrCfg),
		Topics:    topics.NewSegmenterFromDefaults(llm, cfg.Defaults),
		Summary:   summarize.NewGenerator(llm),
		Chat:      notify.NewChatNotifier(cfg.Slack, chatToken, st.Transcripts, cfg.DashboardURL),
		Webhook:   webhook,
		Consent:   notify.NewConsentChecker(st.Consents, st.Transcripts, gw),
		Events:    publisher,
		Telemetry: rec,
	}, nil
}
