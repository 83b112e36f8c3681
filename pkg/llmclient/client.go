// Package llmclient is the shared HTTP client used by topic segmentation
// (C7) and summarization (C8) to call a configured LLM provider. Grounded
// on pkg/asr's client, which itself adapts the teacher's
// pkg/runbook/github.go HTTP idiom, since no generated RPC client exists
// anywhere in the retrieval pack to build a gRPC client on (see
// pkg/asr/client.go's doc comment for the full rationale).
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/retry"
)

// Client calls a configured LLM provider's HTTP completion API.
type Client struct {
	httpClient *http.Client
	cfg        *config.LLMProviderConfig
}

// New builds a Client for the given provider configuration.
func New(cfg *config.LLMProviderConfig) *Client {
	timeout := 60 * time.Second
	if cfg.RequestTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
	}
}

type completeRequest struct {
	Model      string `json:"model"`
	Prompt     string `json:"prompt"`
	MaxTokens  int    `json:"max_tokens,omitempty"`
	JSONSchema bool   `json:"json_schema,omitempty"`
}

type completeResponse struct {
	Text string `json:"text"`
}

// Complete submits prompt to the provider and returns its raw text
// response. When asJSON is set, the provider is asked to constrain its
// output to a JSON object (used by C7's per-chunk {title, summary} calls);
// callers unmarshal the result themselves since the shape varies by call.
func (c *Client) Complete(ctx context.Context, prompt string, asJSON bool) (string, error) {
	body, err := json.Marshal(completeRequest{
		Model:      c.cfg.Model,
		Prompt:     prompt,
		MaxTokens:  c.cfg.MaxOutputTokens,
		JSONSchema: asJSON,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"/v1/complete", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKeyEnv != "" {
		if key := os.Getenv(c.cfg.APIKeyEnv); key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call LLM provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		httpErr := fmt.Errorf("LLM provider returned HTTP %d", resp.StatusCode)
		return "", retry.ClassifyHTTPStatus(resp.StatusCode, httpErr)
	}

	var out completeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode LLM response: %w", err)
	}
	return out.Text, nil
}
