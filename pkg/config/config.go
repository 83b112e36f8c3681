package config

// Config is the umbrella configuration object that encapsulates all
// registries, defaults, and configuration state. This is the primary object
// returned by Initialize() and used throughout the application.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// System-wide defaults
	Defaults *Defaults

	// Queue, retention, storage, Slack, webhook, and intake settings
	Queue    *QueueConfig
	Retention *RetentionConfig
	Storage  *StorageConfig
	Slack    *SlackConfig
	Webhook  *WebhookConfig
	Intake   *IntakeConfig
	WSAuth   *WSAuthConfig
	Redis    *RedisConfig

	// DashboardURL is embedded in outbound webhook payloads and chat
	// messages as the link back to the transcript (spec.md §4.10).
	DashboardURL string

	// AllowedWSOrigins restricts which Origin headers pkg/api accepts on
	// the WebSocket upgrade (spec.md §6).
	AllowedWSOrigins []string

	// Component registries
	ASRProviderRegistry *ASRProviderRegistry
	LLMProviderRegistry *LLMProviderRegistry
	TaskPolicyRegistry  *TaskPolicyRegistry
}

// Initialize is defined in loader.go

// ConfigStats contains statistics about loaded configuration.
type ConfigStats struct {
	ASRProviders int
	LLMProviders int
	TaskPolicies int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		ASRProviders: len(c.ASRProviderRegistry.GetAll()),
		LLMProviders: len(c.LLMProviderRegistry.GetAll()),
		TaskPolicies: len(c.TaskPolicyRegistry.GetAll()),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetASRProvider retrieves an ASR provider configuration by name.
// This is a convenience method that wraps ASRProviderRegistry.Get().
func (c *Config) GetASRProvider(name string) (*ASRProviderConfig, error) {
	return c.ASRProviderRegistry.Get(name)
}

// GetLLMProvider retrieves an LLM provider configuration by name.
// This is a convenience method that wraps LLMProviderRegistry.Get().
func (c *Config) GetLLMProvider(name string) (*LLMProviderConfig, error) {
	return c.LLMProviderRegistry.Get(name)
}

// GetTaskPolicy retrieves the retry/timeout policy for a task name.
// This is a convenience method that wraps TaskPolicyRegistry.Get().
func (c *Config) GetTaskPolicy(taskName string) (*TaskPolicyConfig, error) {
	return c.TaskPolicyRegistry.Get(taskName)
}
