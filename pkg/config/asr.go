package config

import (
	"fmt"
	"sync"
)

// ASRProviderConfig defines a speech-to-text backend (spec.md §4.5, C5).
// meetingscribe talks to ASR providers over plain HTTP; see pkg/asr.
type ASRProviderConfig struct {
	// Endpoint is the base URL of the ASR service's HTTP API.
	Endpoint string `yaml:"endpoint" validate:"required"`

	// APIKeyEnv names the env var holding the bearer token sent as an
	// Authorization header, if the provider requires authentication.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// Model selects the provider's acoustic/language model, if it exposes one.
	Model string `yaml:"model,omitempty"`

	// UseTLS is parsed from YAML but not read by pkg/asr; the HTTP client
	// uses the scheme of Endpoint with Go's default TLS settings.
	UseTLS bool `yaml:"use_tls"`

	// SampleRateHz is the audio sample rate the provider expects. It is
	// validated (min 8000) but not used when padding: padded tracks are
	// always encoded at 48 kHz.
	SampleRateHz int `yaml:"sample_rate_hz" validate:"required,min=8000"`
}

// ASRProviderRegistry stores ASR provider configurations in memory with
// thread-safe access.
type ASRProviderRegistry struct {
	providers map[string]*ASRProviderConfig
	mu        sync.RWMutex
}

// NewASRProviderRegistry creates a new ASR provider registry.
func NewASRProviderRegistry(providers map[string]*ASRProviderConfig) *ASRProviderRegistry {
	copied := make(map[string]*ASRProviderConfig, len(providers))
	for k, v := range providers {
		copied[k] = v
	}
	return &ASRProviderRegistry{providers: copied}
}

// Get retrieves an ASR provider configuration by name (thread-safe).
func (r *ASRProviderRegistry) Get(name string) (*ASRProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrASRProviderNotFound, name)
	}
	return provider, nil
}

// GetAll returns all ASR provider configurations (thread-safe, returns copy).
func (r *ASRProviderRegistry) GetAll() map[string]*ASRProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*ASRProviderConfig, len(r.providers))
	for k, v := range r.providers {
		result[k] = v
	}
	return result
}

// Has checks if an ASR provider exists in the registry (thread-safe).
func (r *ASRProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[name]
	return exists
}

// Len returns the number of ASR providers in the registry (thread-safe).
func (r *ASRProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
