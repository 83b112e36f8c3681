package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// MeetingScribeYAMLConfig represents the complete meetingscribe.yaml file
// structure: system-wide settings, ASR providers, task policies, defaults,
// and the queue.
type MeetingScribeYAMLConfig struct {
	System       *SystemYAMLConfig                   `yaml:"system"`
	ASRProviders map[string]ASRProviderConfig         `yaml:"asr_providers"`
	TaskPolicies map[string]TaskPolicyConfig          `yaml:"task_policies"`
	Defaults     *Defaults                            `yaml:"defaults"`
	Queue        *QueueConfig                         `yaml:"queue"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	DashboardURL     string               `yaml:"dashboard_url"`
	AllowedWSOrigins []string             `yaml:"allowed_ws_origins"`
	Storage          *StorageYAMLConfig   `yaml:"storage"`
	Slack            *SlackYAMLConfig     `yaml:"slack"`
	Webhook          *WebhookYAMLConfig   `yaml:"webhook"`
	Intake           *IntakeYAMLConfig    `yaml:"intake"`
	Retention        *RetentionConfig     `yaml:"retention"`
	WSAuth           *WSAuthYAMLConfig    `yaml:"ws_auth"`
	Redis            *RedisYAMLConfig     `yaml:"redis"`
}

// StorageYAMLConfig holds object-storage settings from YAML.
type StorageYAMLConfig struct {
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region,omitempty"`
	EndpointURL    string `yaml:"endpoint_url,omitempty"`
	PresignTTL     string `yaml:"presign_ttl,omitempty"` // Parsed to time.Duration
	ForcePathStyle *bool  `yaml:"force_path_style,omitempty"`
}

// SlackYAMLConfig holds chat-notification settings from YAML.
type SlackYAMLConfig struct {
	Enabled     *bool  `yaml:"enabled,omitempty"`
	BotTokenEnv string `yaml:"bot_token_env,omitempty"`
}

// WebhookYAMLConfig holds outbound-webhook settings from YAML.
type WebhookYAMLConfig struct {
	SigningSecretEnv string `yaml:"signing_secret_env,omitempty"`
	MaxAttempts      int    `yaml:"max_attempts,omitempty"`
	RequestTimeout   string `yaml:"request_timeout,omitempty"` // Parsed to time.Duration
}

// IntakeYAMLConfig holds inbound-webhook verification settings from YAML.
type IntakeYAMLConfig struct {
	SigningSecretEnv string `yaml:"signing_secret_env,omitempty"`
}

// WSAuthYAMLConfig holds WebSocket bearer-token settings from YAML.
type WSAuthYAMLConfig struct {
	TokenEnv string `yaml:"token_env,omitempty"`
}

// RedisYAMLConfig holds the retention sweeper's cross-pod lock settings from YAML.
type RedisYAMLConfig struct {
	AddrEnv string `yaml:"addr_env,omitempty"`
}

// LLMProvidersYAMLConfig represents the complete llm-providers.yaml file structure.
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load YAML files from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined task policies (user overrides built-in)
//  5. Build in-memory registries
//  6. Apply default values
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"asr_providers", stats.ASRProviders,
		"llm_providers", stats.LLMProviders,
		"task_policies", stats.TaskPolicies)

	return cfg, nil
}

// load is the internal loader (not exported).
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	msConfig, err := loader.loadMeetingScribeYAML()
	if err != nil {
		return nil, NewLoadError("meetingscribe.yaml", err)
	}

	llmProviders, err := loader.loadLLMProvidersYAML()
	if err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	asrProviders := make(map[string]*ASRProviderConfig, len(msConfig.ASRProviders))
	for name, p := range msConfig.ASRProviders {
		p := p
		asrProviders[name] = &p
	}
	llmProvidersMerged := make(map[string]*LLMProviderConfig, len(llmProviders))
	for name, p := range llmProviders {
		p := p
		llmProvidersMerged[name] = &p
	}

	// Merge built-in + user-defined task policies (user overrides built-in
	// per field, so e.g. an operator raising webhook_send's timeout doesn't
	// also have to repeat its attempt count and backoff bounds).
	taskPolicies := DefaultTaskPolicies()
	for name, override := range msConfig.TaskPolicies {
		override := override
		existing, ok := taskPolicies[name]
		if !ok {
			taskPolicies[name] = &override
			continue
		}
		if err := mergo.Merge(existing, &override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge task policy %q: %w", name, err)
		}
	}

	asrProviderRegistry := NewASRProviderRegistry(asrProviders)
	llmProviderRegistry := NewLLMProviderRegistry(llmProvidersMerged)
	taskPolicyRegistry := NewTaskPolicyRegistry(taskPolicies, DefaultTaskPolicyFallback)

	defaults := msConfig.Defaults
	if defaults == nil {
		defaults = &Defaults{}
	}
	if defaults.TargetLanguage == "" {
		defaults.TargetLanguage = "en"
	}

	// Resolve queue config (merge user YAML with built-in defaults). Start
	// with defaults, then merge user config on top to preserve unset defaults.
	queueConfig := DefaultQueueConfig()
	if msConfig.Queue != nil {
		if err := mergo.Merge(queueConfig, msConfig.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge queue config: %w", err)
		}
	}

	storageCfg, err := resolveStorageConfig(msConfig.System)
	if err != nil {
		return nil, err
	}
	slackCfg := resolveSlackConfig(msConfig.System)
	webhookCfg, err := resolveWebhookConfig(msConfig.System)
	if err != nil {
		return nil, err
	}
	intakeCfg := resolveIntakeConfig(msConfig.System)
	retentionCfg := resolveRetentionConfig(msConfig.System)
	dashboardURL := resolveDashboardURL(msConfig.System)
	allowedWSOrigins := resolveAllowedWSOrigins(msConfig.System)
	wsAuthCfg := resolveWSAuthConfig(msConfig.System)
	redisCfg := resolveRedisConfig(msConfig.System)

	return &Config{
		configDir:           configDir,
		Defaults:            defaults,
		Queue:               queueConfig,
		Storage:             storageCfg,
		Slack:               slackCfg,
		Webhook:             webhookCfg,
		Intake:              intakeCfg,
		Retention:           retentionCfg,
		DashboardURL:        dashboardURL,
		AllowedWSOrigins:    allowedWSOrigins,
		WSAuth:              wsAuthCfg,
		Redis:               redisCfg,
		ASRProviderRegistry: asrProviderRegistry,
		LLMProviderRegistry: llmProviderRegistry,
		TaskPolicyRegistry:  taskPolicyRegistry,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand {{.VAR}} references before parsing. ExpandEnv passes through
	// original data on a malformed template, letting the YAML parser surface
	// a clearer error than a silently-empty field would.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadMeetingScribeYAML() (*MeetingScribeYAMLConfig, error) {
	var config MeetingScribeYAMLConfig
	config.ASRProviders = make(map[string]ASRProviderConfig)
	config.TaskPolicies = make(map[string]TaskPolicyConfig)

	if err := l.loadYAML("meetingscribe.yaml", &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func (l *configLoader) loadLLMProvidersYAML() (map[string]LLMProviderConfig, error) {
	var config LLMProvidersYAMLConfig
	config.LLMProviders = make(map[string]LLMProviderConfig)

	if err := l.loadYAML("llm-providers.yaml", &config); err != nil {
		return nil, err
	}

	return config.LLMProviders, nil
}

// resolveStorageConfig resolves object-storage configuration from system
// YAML. Unlike the other system sub-configs, storage has no safe default
// bucket, so a missing system.storage block is itself a validation error.
func resolveStorageConfig(sys *SystemYAMLConfig) (*StorageConfig, error) {
	cfg := &StorageConfig{
		PresignTTL:     2 * time.Hour,
		ForcePathStyle: false,
	}

	if sys == nil || sys.Storage == nil {
		return nil, fmt.Errorf("%w: system.storage", ErrMissingRequiredField)
	}

	st := sys.Storage
	if st.Bucket == "" {
		return nil, fmt.Errorf("%w: system.storage.bucket", ErrMissingRequiredField)
	}
	cfg.Bucket = st.Bucket
	cfg.Region = st.Region
	cfg.EndpointURL = st.EndpointURL
	if st.PresignTTL != "" {
		d, err := time.ParseDuration(st.PresignTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: system.storage.presign_ttl: %v", ErrInvalidValue, err)
		}
		cfg.PresignTTL = d
	}
	if st.ForcePathStyle != nil {
		cfg.ForcePathStyle = *st.ForcePathStyle
	}

	return cfg, nil
}

// resolveSlackConfig resolves Slack configuration from system YAML, applying defaults.
func resolveSlackConfig(sys *SystemYAMLConfig) *SlackConfig {
	cfg := &SlackConfig{
		Enabled:     false,
		BotTokenEnv: "SLACK_BOT_TOKEN",
	}

	if sys == nil || sys.Slack == nil {
		return cfg
	}

	s := sys.Slack
	if s.Enabled != nil {
		cfg.Enabled = *s.Enabled
	}
	if s.BotTokenEnv != "" {
		cfg.BotTokenEnv = s.BotTokenEnv
	}

	return cfg
}

// resolveWebhookConfig resolves outbound-webhook configuration from system YAML.
func resolveWebhookConfig(sys *SystemYAMLConfig) (*WebhookConfig, error) {
	cfg := &WebhookConfig{
		SigningSecretEnv: "WEBHOOK_SIGNING_SECRET",
		MaxAttempts:      30,
		RequestTimeout:   10 * time.Second,
	}

	if sys == nil || sys.Webhook == nil {
		return cfg, nil
	}

	wh := sys.Webhook
	if wh.SigningSecretEnv != "" {
		cfg.SigningSecretEnv = wh.SigningSecretEnv
	}
	if wh.MaxAttempts > 0 {
		cfg.MaxAttempts = wh.MaxAttempts
	}
	if wh.RequestTimeout != "" {
		d, err := time.ParseDuration(wh.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: system.webhook.request_timeout: %v", ErrInvalidValue, err)
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}

// resolveIntakeConfig resolves inbound-webhook verification configuration from system YAML.
func resolveIntakeConfig(sys *SystemYAMLConfig) *IntakeConfig {
	cfg := &IntakeConfig{SigningSecretEnv: "INTAKE_SIGNING_SECRET"}

	if sys != nil && sys.Intake != nil && sys.Intake.SigningSecretEnv != "" {
		cfg.SigningSecretEnv = sys.Intake.SigningSecretEnv
	}

	return cfg
}

// resolveWSAuthConfig resolves WebSocket bearer-token configuration from system YAML.
func resolveWSAuthConfig(sys *SystemYAMLConfig) *WSAuthConfig {
	cfg := &WSAuthConfig{TokenEnv: "WS_AUTH_TOKEN"}

	if sys != nil && sys.WSAuth != nil && sys.WSAuth.TokenEnv != "" {
		cfg.TokenEnv = sys.WSAuth.TokenEnv
	}

	return cfg
}

// resolveDashboardURL resolves the dashboard base URL from system YAML, applying defaults.
func resolveDashboardURL(sys *SystemYAMLConfig) string {
	if sys != nil && sys.DashboardURL != "" {
		return sys.DashboardURL
	}
	return "http://localhost:5173"
}

// resolveRetentionConfig resolves retention configuration from system YAML, applying defaults.
func resolveRetentionConfig(sys *SystemYAMLConfig) *RetentionConfig {
	cfg := DefaultRetentionConfig()

	if sys == nil || sys.Retention == nil {
		return cfg
	}

	r := sys.Retention
	if r.TranscriptRetentionDays > 0 {
		cfg.TranscriptRetentionDays = r.TranscriptRetentionDays
	}
	if r.AnonymousRetentionHours > 0 {
		cfg.AnonymousRetentionHours = r.AnonymousRetentionHours
	}
	if r.EventTTL > 0 {
		cfg.EventTTL = r.EventTTL
	}
	if r.CleanupInterval > 0 {
		cfg.CleanupInterval = r.CleanupInterval
	}

	return cfg
}

// resolveRedisConfig resolves the retention sweeper's distributed-lock
// configuration from system YAML. A missing system.redis block still
// returns a non-nil config carrying the default env var name; pkg/retention
// treats an unset env var the same as a missing address (lock disabled).
func resolveRedisConfig(sys *SystemYAMLConfig) *RedisConfig {
	cfg := &RedisConfig{AddrEnv: "REDIS_ADDR"}

	if sys != nil && sys.Redis != nil && sys.Redis.AddrEnv != "" {
		cfg.AddrEnv = sys.Redis.AddrEnv
	}

	return cfg
}

// resolveAllowedWSOrigins returns additional WebSocket origin patterns from system YAML.
func resolveAllowedWSOrigins(sys *SystemYAMLConfig) []string {
	if sys != nil {
		return sys.AllowedWSOrigins
	}
	return nil
}
