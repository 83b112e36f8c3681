package config

import "time"

// StorageConfig holds resolved object-storage configuration (spec.md §4.1).
type StorageConfig struct {
	Bucket          string        // Bucket holding recordings, tracks, and derived artifacts
	Region          string        // AWS region (or S3-compatible region hint)
	EndpointURL     string        // Optional S3-compatible endpoint override (empty = AWS default)
	PresignTTL      time.Duration // Lifetime of presigned GET/PUT URLs handed to internal components
	ForcePathStyle  bool          // Required by most non-AWS S3-compatible backends
}

// SlackConfig holds resolved chat-notification configuration (spec.md §4.10).
type SlackConfig struct {
	Enabled      bool   // Enabled gates C10's chat-post step entirely; disabled is fail-open
	BotTokenEnv  string // Env var name containing the Slack bot token (default: "SLACK_BOT_TOKEN")
}

// WebhookConfig holds resolved outbound-webhook configuration (spec.md §4.10).
type WebhookConfig struct {
	SigningSecretEnv string        // Env var name containing the HMAC signing secret
	MaxAttempts      int           // Retry ceiling before giving up (default: 30, per spec.md §4.10)
	RequestTimeout   time.Duration // Per-attempt HTTP timeout
}

// IntakeConfig holds resolved inbound-webhook verification configuration
// (spec.md §4.12, C12).
type IntakeConfig struct {
	SigningSecretEnv string // Env var name containing the inbound HMAC secret
}

// WSAuthConfig holds the shared bearer token accepted on the WebSocket
// upgrade's "bearer, <token>" subprotocol pair (spec.md §6).
type WSAuthConfig struct {
	TokenEnv string // Env var name containing the accepted bearer token
}

// RedisConfig holds the Redis connection used to elect a single retention
// sweeper across pods (pkg/retention). AddrEnv empty, or its env var unset,
// disables the distributed lock: the sweep just runs unguarded, which is
// safe (every retention operation is idempotent) but may run redundantly
// from more than one pod.
type RedisConfig struct {
	AddrEnv string // Env var name containing the redis "host:port" address
}
