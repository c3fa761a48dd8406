package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the gateway and the CLI.
type Config struct {
	// Server
	Port           int    `env:"PORT" envDefault:"8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout int    `env:"REQUEST_TIMEOUT" envDefault:"0"` // seconds, 0 disables the server-side timeout

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// LLM
	LLMProvider    string `env:"LLM_PROVIDER" envDefault:"gemini"` // "gemini" or "openai"
	LLMModel       string `env:"LLM_MODEL" envDefault:"gemini-2.5-flash"`
	LLMMaxAttempts int    `env:"LLM_MAX_ATTEMPTS" envDefault:"1"`

	// Secrets
	SecretName  string `env:"SECRET_NAME" envDefault:"GEMINI_API_KEY"`
	SecretsFile string `env:"SECRETS_FILE" envDefault:"secrets.env"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "none" or "redis"
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Sessions
	SessionTTL          int `env:"SESSION_TTL" envDefault:"30"` // minutes idle
	MaxSessions         int `env:"MAX_SESSIONS" envDefault:"100"`
	ChatHistoryWindow   int `env:"CHAT_HISTORY_WINDOW" envDefault:"40"`
	ChatTranscriptLimit int `env:"CHAT_TRANSCRIPT_LIMIT" envDefault:"200"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// CacheExpiry is the TTL applied to cached ratio tables.
func (c Config) CacheExpiry() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SessionIdle is how long an untouched session survives.
func (c Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionTTL) * time.Minute
}
