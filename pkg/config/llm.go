package config

import (
	"fmt"
	"sync"
)

// LLMProviderConfig defines an LLM backend used by topic segmentation (C7)
// and summarization (C8). Both components call the same HTTP client
// (pkg/llmclient), so a single provider shape serves both.
type LLMProviderConfig struct {
	// Endpoint is the base URL of the LLM service's HTTP API.
	Endpoint string `yaml:"endpoint" validate:"required"`

	// Model selects the model name/version (required).
	Model string `yaml:"model" validate:"required"`

	// APIKeyEnv names the env var holding the bearer token sent as an
	// Authorization header.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// UseTLS is parsed from YAML but not read by pkg/llmclient; the HTTP
	// client uses the scheme of Endpoint with Go's default TLS settings.
	UseTLS bool `yaml:"use_tls"`

	// MaxOutputTokens bounds a single generation call (required, min 256).
	MaxOutputTokens int `yaml:"max_output_tokens" validate:"required,min=256"`

	// RequestTimeout bounds a single HTTP call; task-level retry/backoff
	// lives in the task policy table (spec.md §4.11), not here.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds,omitempty"`
}

// LLMProviderRegistry stores LLM provider configurations in memory with
// thread-safe access.
type LLMProviderRegistry struct {
	providers map[string]*LLMProviderConfig
	mu        sync.RWMutex
}

// NewLLMProviderRegistry creates a new LLM provider registry.
func NewLLMProviderRegistry(providers map[string]*LLMProviderConfig) *LLMProviderRegistry {
	copied := make(map[string]*LLMProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &LLMProviderRegistry{providers: copied}
}

// Get retrieves an LLM provider configuration by name (thread-safe).
func (r *LLMProviderRegistry) Get(name string) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return provider, nil
}

// GetAll returns all LLM provider configurations (thread-safe, returns copy).
func (r *LLMProviderRegistry) GetAll() map[string]*LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*LLMProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

// Has checks if an LLM provider exists in the registry (thread-safe).
func (r *LLMProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[name]
	return exists
}

// Len returns the number of LLM providers in the registry (thread-safe).
func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
