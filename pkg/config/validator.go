package config

import "fmt"

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first
// error). Order matters: queue and storage are load-bearing for every task,
// so they're checked before the provider/policy registries that reference them.
func (v *Validator) ValidateAll() error {
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := v.validateStorage(); err != nil {
		return fmt.Errorf("storage validation failed: %w", err)
	}
	if err := v.validateASRProviders(); err != nil {
		return fmt.Errorf("ASR provider validation failed: %w", err)
	}
	if err := v.validateLLMProviders(); err != nil {
		return fmt.Errorf("LLM provider validation failed: %w", err)
	}
	if err := v.validateTaskPolicies(); err != nil {
		return fmt.Errorf("task policy validation failed: %w", err)
	}
	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}
	if err := v.validateSlack(); err != nil {
		return fmt.Errorf("slack validation failed: %w", err)
	}
	if err := v.validateWebhook(); err != nil {
		return fmt.Errorf("webhook validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return fmt.Errorf("queue configuration is nil")
	}

	if q.WorkerCount < 1 || q.WorkerCount > 50 {
		return fmt.Errorf("worker_count must be between 1 and 50, got %d", q.WorkerCount)
	}
	if q.MaxConcurrentRuns < 1 {
		return fmt.Errorf("max_concurrent_runs must be at least 1, got %d", q.MaxConcurrentRuns)
	}
	if q.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", q.PollInterval)
	}
	if q.PollIntervalJitter < 0 {
		return fmt.Errorf("poll_interval_jitter must be non-negative, got %v", q.PollIntervalJitter)
	}
	if q.PollIntervalJitter >= q.PollInterval {
		return fmt.Errorf("poll_interval_jitter must be less than poll_interval, got jitter=%v interval=%v", q.PollIntervalJitter, q.PollInterval)
	}
	if q.TaskTimeout <= 0 {
		return fmt.Errorf("task_timeout must be positive, got %v", q.TaskTimeout)
	}
	if q.GracefulShutdownTimeout <= 0 {
		return fmt.Errorf("graceful_shutdown_timeout must be positive, got %v", q.GracefulShutdownTimeout)
	}
	if q.OrphanDetectionInterval <= 0 {
		return fmt.Errorf("orphan_detection_interval must be positive, got %v", q.OrphanDetectionInterval)
	}
	if q.OrphanThreshold <= 0 {
		return fmt.Errorf("orphan_threshold must be positive, got %v", q.OrphanThreshold)
	}
	if q.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive, got %v", q.HeartbeatInterval)
	}
	if q.HeartbeatInterval >= q.OrphanThreshold {
		return fmt.Errorf("heartbeat_interval must be less than orphan_threshold, got heartbeat=%v threshold=%v", q.HeartbeatInterval, q.OrphanThreshold)
	}

	return nil
}

func (v *Validator) validateStorage() error {
	s := v.cfg.Storage
	if s == nil {
		return fmt.Errorf("storage configuration is nil")
	}
	if s.Bucket == "" {
		return NewValidationError("storage", "", "bucket", ErrMissingRequiredField)
	}
	if s.PresignTTL <= 0 {
		return NewValidationError("storage", "", "presign_ttl", fmt.Errorf("must be positive, got %v", s.PresignTTL))
	}
	return nil
}

func (v *Validator) validateASRProviders() error {
	for name, p := range v.cfg.ASRProviderRegistry.GetAll() {
		if p.Endpoint == "" {
			return NewValidationError("asr_provider", name, "endpoint", ErrMissingRequiredField)
		}
		if p.SampleRateHz < 8000 {
			return NewValidationError("asr_provider", name, "sample_rate_hz",
				fmt.Errorf("must be at least 8000, got %d", p.SampleRateHz))
		}
	}

	if v.cfg.Defaults != nil && v.cfg.Defaults.ASRProvider != "" && !v.cfg.ASRProviderRegistry.Has(v.cfg.Defaults.ASRProvider) {
		return NewValidationError("defaults", "", "asr_provider",
			fmt.Errorf("%w: %s", ErrInvalidReference, v.cfg.Defaults.ASRProvider))
	}

	return nil
}

func (v *Validator) validateLLMProviders() error {
	for name, p := range v.cfg.LLMProviderRegistry.GetAll() {
		if p.Endpoint == "" {
			return NewValidationError("llm_provider", name, "endpoint", ErrMissingRequiredField)
		}
		if p.Model == "" {
			return NewValidationError("llm_provider", name, "model", ErrMissingRequiredField)
		}
		if p.MaxOutputTokens < 256 {
			return NewValidationError("llm_provider", name, "max_output_tokens",
				fmt.Errorf("must be at least 256, got %d", p.MaxOutputTokens))
		}
	}

	if v.cfg.Defaults != nil && v.cfg.Defaults.LLMProvider != "" && !v.cfg.LLMProviderRegistry.Has(v.cfg.Defaults.LLMProvider) {
		return NewValidationError("defaults", "", "llm_provider",
			fmt.Errorf("%w: %s", ErrInvalidReference, v.cfg.Defaults.LLMProvider))
	}

	return nil
}

func (v *Validator) validateTaskPolicies() error {
	for name, p := range v.cfg.TaskPolicyRegistry.GetAll() {
		if p.MaxAttempts < 1 {
			return NewValidationError("task_policy", name, "max_attempts",
				fmt.Errorf("must be at least 1, got %d", p.MaxAttempts))
		}
		if p.Timeout <= 0 {
			return NewValidationError("task_policy", name, "timeout",
				fmt.Errorf("must be positive, got %v", p.Timeout))
		}
		if p.MaxInterval > 0 && p.InitialInterval > p.MaxInterval {
			return NewValidationError("task_policy", name, "initial_interval",
				fmt.Errorf("must not exceed max_interval (%v), got %v", p.MaxInterval, p.InitialInterval))
		}
	}
	return nil
}

func (v *Validator) validateDefaults() error {
	d := v.cfg.Defaults
	if d == nil {
		return nil
	}
	if d.TopicChunkSeconds != nil && *d.TopicChunkSeconds < 30 {
		return NewValidationError("defaults", "", "topic_chunk_seconds",
			fmt.Errorf("must be at least 30 seconds, got %d", *d.TopicChunkSeconds))
	}
	if d.AnonymousRetention != nil && d.AnonymousRetention.Days < 1 {
		return NewValidationError("defaults", "", "anonymous_retention.days",
			fmt.Errorf("must be at least 1, got %d", d.AnonymousRetention.Days))
	}
	return nil
}

func (v *Validator) validateSlack() error {
	s := v.cfg.Slack
	if s == nil || !s.Enabled {
		return nil
	}
	if s.BotTokenEnv == "" {
		return NewValidationError("slack", "", "bot_token_env", ErrMissingRequiredField)
	}
	return nil
}

func (v *Validator) validateWebhook() error {
	w := v.cfg.Webhook
	if w == nil {
		return fmt.Errorf("webhook configuration is nil")
	}
	if w.MaxAttempts < 1 {
		return NewValidationError("webhook", "", "max_attempts",
			fmt.Errorf("must be at least 1, got %d", w.MaxAttempts))
	}
	if w.RequestTimeout <= 0 {
		return NewValidationError("webhook", "", "request_timeout",
			fmt.Errorf("must be positive, got %v", w.RequestTimeout))
	}
	return nil
}
