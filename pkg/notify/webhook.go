package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/retry"
	"github.com/codeready-toolchain/meetingscribe/pkg/telemetry"
)

// WebhookPolicy implements the webhook backoff literally described in
// spec.md §4.10: up to 30 attempts, exponential backoff capped at an hour,
// no retry on 4xx (enforced by retry.ClassifyHTTPStatus in deliver). Kept
// distinct from the task-policy-table's "webhook_send" entry, whose
// 5-minute ceiling is tuned for workflow-task retries rather than this
// outbound-notification requirement.
var WebhookPolicy = retry.Policy{
	MaxAttempts:     30,
	InitialInterval: 5 * time.Second,
	MaxInterval:     time.Hour,
}

const defaultWebhookTimeout = 30 * time.Second

// WebhookSender delivers a signed webhook notification to a room's
// configured endpoint (spec.md §4.10 step 3). Grounded on the teacher's
// HTTP client idiom (pkg/runbook/github.go) and pkg/retry's backoff policy.
type WebhookSender struct {
	httpClient       *http.Client
	signingSecretEnv string
	recorder         *telemetry.Recorder
}

// NewWebhookSender builds a WebhookSender from webhook config.
func NewWebhookSender(cfg *config.WebhookConfig) *WebhookSender {
	timeout := defaultWebhookTimeout
	secretEnv := ""
	if cfg != nil {
		if cfg.RequestTimeout > 0 {
			timeout = cfg.RequestTimeout
		}
		secretEnv = cfg.SigningSecretEnv
	}
	return &WebhookSender{
		httpClient:       &http.Client{Timeout: timeout},
		signingSecretEnv: secretEnv,
	}
}

// SetRecorder attaches a telemetry.Recorder so each delivery attempt (not
// just the final task outcome Engine already records) is observable. A nil
// recorder leaves delivery metrics disabled.
func (s *WebhookSender) SetRecorder(rec *telemetry.Recorder) {
	s.recorder = rec
}

// Send delivers payload to room's webhook_url, HMAC-signed with room's
// webhook_secret (falling back to the env var named by WebhookConfig's
// SigningSecretEnv when the room carries no per-room secret). A no-op if
// room has no webhook configured.
func (s *WebhookSender) Send(ctx context.Context, room *models.Room, payload models.WebhookPayload) error {
	if !room.HasWebhook() {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload for transcript %s: %w", payload.TranscriptID, err)
	}

	secret := room.WebhookSecret
	if secret == "" && s.signingSecretEnv != "" {
		secret = os.Getenv(s.signingSecretEnv)
	}

	attempt := 0
	return retry.Do(ctx, WebhookPolicy, "webhook_send", func(ctx context.Context) error {
		attempt++
		return s.deliver(ctx, room.WebhookURL, body, secret, attempt)
	})
}

func (s *WebhookSender) deliver(ctx context.Context, url string, body []byte, secret string, attempt int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("build webhook request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "meetingscribe-Webhook/1.0")
	req.Header.Set("X-Webhook-Event", "transcript.completed")
	req.Header.Set("X-Webhook-Retry", strconv.Itoa(attempt))
	if secret != "" {
		req.Header.Set("X-Webhook-Signature", signature(body, secret))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.recorder.ObserveWebhookDelivery("success")
		return nil
	}
	s.recorder.ObserveWebhookDelivery("failure")
	return retry.ClassifyHTTPStatus(resp.StatusCode, fmt.Errorf("webhook endpoint returned HTTP %d", resp.StatusCode))
}

// signature builds the X-Webhook-Signature header value: "t=<unix
// timestamp>,v1=<hex HMAC-SHA256 of "ts.body">" (spec.md §4.10).
func signature(body []byte, secret string) string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "."))
	mac.Write(body)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
