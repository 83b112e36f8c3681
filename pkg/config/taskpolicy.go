package config

import (
	"fmt"
	"sync"
	"time"
)

// TaskPolicyConfig is the per-task retry/timeout entry from spec.md §4.11's
// task table (e.g. pad_track, mixdown, transcribe_track, detect_topics).
// pkg/workflow looks this up by task name to build a pkg/retry.Policy and a
// context deadline for each task execution.
type TaskPolicyConfig struct {
	MaxAttempts     int           `yaml:"max_attempts" validate:"required,min=1"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	Timeout         time.Duration `yaml:"timeout" validate:"required"`
}

// TaskPolicyRegistry stores per-task retry/timeout policies in memory with
// thread-safe access.
type TaskPolicyRegistry struct {
	policies map[string]*TaskPolicyConfig
	fallback *TaskPolicyConfig
	mu       sync.RWMutex
}

// NewTaskPolicyRegistry creates a new task policy registry. fallback is
// returned by Get for any task name absent from policies, so the workflow
// engine never fails to look up a policy for a task added without YAML
// configuration.
func NewTaskPolicyRegistry(policies map[string]*TaskPolicyConfig, fallback *TaskPolicyConfig) *TaskPolicyRegistry {
	copied := make(map[string]*TaskPolicyConfig, len(policies))
	for k, v := range policies {
		copied[k] = v
	}
	return &TaskPolicyRegistry{policies: copied, fallback: fallback}
}

// Get retrieves the policy for a task name, falling back to the registry's
// default policy if none is configured (thread-safe).
func (r *TaskPolicyRegistry) Get(taskName string) (*TaskPolicyConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if policy, exists := r.policies[taskName]; exists {
		return policy, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskPolicyNotFound, taskName)
}

// GetAll returns all configured task policies (thread-safe, returns copy).
// The fallback policy is not included.
func (r *TaskPolicyRegistry) GetAll() map[string]*TaskPolicyConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*TaskPolicyConfig, len(r.policies))
	for k, v := range r.policies {
		result[k] = v
	}
	return result
}

// Has checks if a task name has an explicit (non-fallback) policy (thread-safe).
func (r *TaskPolicyRegistry) Has(taskName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.policies[taskName]
	return exists
}

// Len returns the number of explicitly configured task policies (thread-safe).
func (r *TaskPolicyRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.policies)
}

// DefaultTaskPolicies returns the built-in per-task retry/timeout table from
// spec.md §4.11.
func DefaultTaskPolicies() map[string]*TaskPolicyConfig {
	return map[string]*TaskPolicyConfig{
		"get_recording": {
			MaxAttempts: 3, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second,
			Timeout: 1 * time.Minute,
		},
		"get_participants": {
			MaxAttempts: 3, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second,
			Timeout: 1 * time.Minute,
		},
		"pad_track": {
			MaxAttempts: 3, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second,
			Timeout: 10 * time.Minute,
		},
		"mixdown": {
			MaxAttempts: 2, InitialInterval: 1 * time.Second, MaxInterval: 5 * time.Second,
			Timeout: 15 * time.Minute,
		},
		"transcribe_track": {
			MaxAttempts: 3, InitialInterval: 2 * time.Second, MaxInterval: 30 * time.Second,
			Timeout: 30 * time.Minute,
		},
		"merge_words": {
			MaxAttempts: 2, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second,
			Timeout: 5 * time.Minute,
		},
		"detect_topics": {
			MaxAttempts: 3, InitialInterval: 2 * time.Second, MaxInterval: 20 * time.Second,
			Timeout: 10 * time.Minute,
		},
		"topic_summary": {
			MaxAttempts: 3, InitialInterval: 1 * time.Second, MaxInterval: 10 * time.Second,
			Timeout: 3 * time.Minute,
		},
		"title_summary": {
			MaxAttempts: 3, InitialInterval: 1 * time.Second, MaxInterval: 10 * time.Second,
			Timeout: 2 * time.Minute,
		},
		"long_summary": {
			MaxAttempts: 3, InitialInterval: 1 * time.Second, MaxInterval: 10 * time.Second,
			Timeout: 3 * time.Minute,
		},
		"short_summary": {
			MaxAttempts: 3, InitialInterval: 1 * time.Second, MaxInterval: 10 * time.Second,
			Timeout: 2 * time.Minute,
		},
		"finalize": {
			MaxAttempts: 2, InitialInterval: 500 * time.Millisecond, MaxInterval: 2 * time.Second,
			Timeout: 1 * time.Minute,
		},
		"consent_cleanup": {
			MaxAttempts: 3, InitialInterval: 1 * time.Second, MaxInterval: 10 * time.Second,
			Timeout: 5 * time.Minute,
		},
		"chat_post": {
			MaxAttempts: 3, InitialInterval: 1 * time.Second, MaxInterval: 10 * time.Second,
			Timeout: 1 * time.Minute,
		},
		"webhook_send": {
			MaxAttempts: 30, InitialInterval: 5 * time.Second, MaxInterval: 5 * time.Minute,
			Timeout: 30 * time.Second,
		},
	}
}

// DefaultTaskPolicyFallback is used for any task not present in
// DefaultTaskPolicies (e.g. a future task added without a YAML override).
var DefaultTaskPolicyFallback = &TaskPolicyConfig{
	MaxAttempts:     3,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     10 * time.Second,
	Timeout:         5 * time.Minute,
}
