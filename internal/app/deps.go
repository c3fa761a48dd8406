package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"fin-agents/internal/cache"
	"fin-agents/internal/config"
	"fin-agents/internal/llm"
	"fin-agents/internal/logger"
	"fin-agents/internal/narrative"
	"fin-agents/internal/ratio"
	"fin-agents/internal/secrets"
	"fin-agents/internal/session"
	"fin-agents/internal/statement"
)

const llmRetryBase = 500 * time.Millisecond

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config     config.Config
	Log        *slog.Logger
	Cache      cache.Cache
	Secrets    secrets.Store
	Sessions   *session.Manager
	Statements *statement.Service
	Narrative  *narrative.Adapter
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	return BuildWith(cfg, logger.New(cfg.LogLevel), nil)
}

// BuildWith assembles the components from an already loaded config. A nil
// store reads secrets from the environment and the configured secrets file.
func BuildWith(cfg config.Config, log *slog.Logger, store secrets.Store) (Deps, error) {
	if store == nil {
		envStore, err := secrets.NewEnvStore(cfg.SecretsFile)
		if err != nil {
			return Deps{}, fmt.Errorf("failed to initialize secrets: %w", err)
		}
		store = envStore
	}
	factory, err := buildLLM(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	c := buildCache(cfg, log)

	return Deps{
		Config:  cfg,
		Log:     log,
		Cache:   c,
		Secrets: store,
		Sessions: session.NewManager(session.Options{
			MaxSessions:     cfg.MaxSessions,
			IdleTTL:         cfg.SessionIdle(),
			TranscriptLimit: cfg.ChatTranscriptLimit,
		}, log.With("component", "sessions")),
		Statements: statement.NewService(c, ratio.DefaultLabels(), cfg.CacheExpiry(), log.With("component", "statements")),
		Narrative: &narrative.Adapter{
			Secrets:       store,
			SecretName:    cfg.SecretName,
			NewClient:     factory,
			Model:         cfg.LLMModel,
			HistoryWindow: cfg.ChatHistoryWindow,
			HistoryLimit:  cfg.ChatTranscriptLimit,
			MaxAttempts:   cfg.LLMMaxAttempts,
			RetryBase:     llmRetryBase,
			Log:           log.With("component", "narrative"),
		},
	}, nil
}

// buildCache falls back to the no-op cache when Redis is unconfigured or
// unreachable; the cache is an optimization only.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		if cfg.RedisAddr == "" {
			log.Warn("REDIS_ADDR is empty; ratio cache disabled")
			return cache.NewNoOpCache()
		}
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable; ratio cache disabled", "addr", cfg.RedisAddr, "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis ratio cache", "addr", cfg.RedisAddr)
		return rc
	case "none", "":
		return cache.NewNoOpCache()
	default:
		log.Warn("unknown CACHE_PROVIDER; ratio cache disabled", "provider", cfg.CacheProvider)
		return cache.NewNoOpCache()
	}
}

// buildLLM returns the client factory. Credentials are resolved per call, so
// a missing key is not a startup error.
func buildLLM(cfg config.Config, log *slog.Logger) (llm.Factory, error) {
	factory, err := llm.NewFactory(cfg.LLMProvider, cfg.LLMModel)
	if err != nil {
		return nil, err
	}
	log.Info("using LLM provider", "provider", cfg.LLMProvider, "model", cfg.LLMModel, "secret", cfg.SecretName)
	return factory, nil
}
