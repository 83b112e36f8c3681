// Package asr implements C5: submit an audio URL and language to a remote
// speech-to-text provider and receive a time-ordered word list. Grounded on
// the teacher's pkg/runbook/github.go HTTP-client idiom (plain net/http,
// context-first, wrapped errors) rather than a generated RPC stub, since no
// .proto/codegen exists anywhere in the retrieval pack to build on.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/retry"
)

// Policy is the C5 retry policy: 3 attempts, TIMEOUT_HEAVY (default 1800s)
// total deadline per track (spec.md §4.5).
var Policy = retry.Policy{
	MaxAttempts: 3,
	MaxElapsed:  1800 * time.Second,
}

// Client calls a configured ASR provider's HTTP API.
type Client struct {
	httpClient *http.Client
	cfg        *config.ASRProviderConfig
}

// New builds a Client for the given provider configuration.
func New(cfg *config.ASRProviderConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
	}
}

type transcribeRequest struct {
	AudioURL string `json:"audio_url"`
	Language string `json:"language"`
	Model    string `json:"model,omitempty"`
}

type transcribeResponse struct {
	Words []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// Transcribe submits audioURL and language to the provider and returns the
// word list, each tagged with speaker (the caller-supplied track index).
// Retries transient failures per Policy; non-retryable 4xx responses
// (except 408/429) are returned wrapped in retry.PermanentError.
func (c *Client) Transcribe(ctx context.Context, audioURL, language string, speaker int) ([]models.Word, error) {
	var words []models.Word

	err := retry.Do(ctx, Policy, "transcribe_track", func(ctx context.Context) error {
		resp, err := c.doTranscribe(ctx, audioURL, language)
		if err != nil {
			return err
		}
		words = make([]models.Word, len(resp.Words))
		for i, w := range resp.Words {
			words[i] = models.Word{Text: w.Text, Start: w.Start, End: w.End, Speaker: speaker}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", audioURL, err)
	}
	return words, nil
}

func (c *Client) doTranscribe(ctx context.Context, audioURL, language string) (*transcribeResponse, error) {
	body, err := json.Marshal(transcribeRequest{AudioURL: audioURL, Language: language, Model: c.cfg.Model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/v1/transcribe", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKeyEnv != "" {
		if key := os.Getenv(c.cfg.APIKeyEnv); key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ASR provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		httpErr := fmt.Errorf("ASR provider returned HTTP %d", resp.StatusCode)
		return nil, retry.ClassifyHTTPStatus(resp.StatusCode, httpErr)
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ASR response: %w", err)
	}
	return &out, nil
}
