package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/talentbridge/diploma-verifier/internal/ai/gemini"
	"github.com/talentbridge/diploma-verifier/internal/docstore"
	"github.com/talentbridge/diploma-verifier/internal/logger"
	"github.com/talentbridge/diploma-verifier/internal/pipeline"
	"github.com/talentbridge/diploma-verifier/internal/secrets"
	"github.com/talentbridge/diploma-verifier/internal/store"
)

// services holds everything a command needs to run verifications.
type services struct {
	pool    *pgxpool.Pool
	store   *store.Store
	docs    *docstore.GCS
	runner  *pipeline.Runner
	cleanup func()
}

// buildServices wires the store, document storage, extractor and pipeline
// from the config. The returned cleanup closes all connections.
func buildServices(ctx context.Context, config *Config, log *zap.Logger) (*services, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Database == nil || strings.TrimSpace(config.Database.URL) == "" {
		return nil, errors.New("database url is required (database.url or DATABASE_URL)")
	}
	if config.Storage == nil || strings.TrimSpace(config.Storage.Bucket) == "" {
		return nil, errors.New("storage bucket is required under storage.bucket")
	}

	pool, err := store.NewPostgresPool(ctx, config.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	closers := []func(){pool.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	st := store.New(pool)

	urlExpiry := time.Duration(0)
	if config.Storage.URLExpiryMinutes > 0 {
		urlExpiry = time.Duration(config.Storage.URLExpiryMinutes) * time.Minute
	}

	docs, err := docstore.NewGCS(ctx, config.Storage.Bucket, urlExpiry)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("connecting to document storage: %w", err)
	}
	closers = append(closers, func() { _ = docs.Close() })

	extractor, err := buildExtractor(ctx, config.AI, log)
	if err != nil {
		cleanup()
		return nil, err
	}

	var cache pipeline.ExtractionCache
	if config.Redis != nil && strings.TrimSpace(config.Redis.URL) != "" {
		rdb, err := store.NewRedisClient(ctx, config.Redis.URL)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })

		ttl := time.Duration(config.Redis.ExtractionTTLHours) * time.Hour
		cache = store.NewExtractionCache(rdb, ttl, log)

		log.Info("extraction cache enabled", zap.Duration("ttl", ttl))
	} else {
		log.Info("extraction cache disabled", zap.String("reason", "no redis url configured"))
	}

	runner := pipeline.NewRunner(st, docs, extractor, cache, log)

	return &services{
		pool:    pool,
		store:   st,
		docs:    docs,
		runner:  runner,
		cleanup: cleanup,
	}, nil
}

func buildExtractor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (*gemini.Extractor, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required under ai.gemini")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := logger.WithCommonFields(log, "gemini", cfg.Gemini.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewExtractor(generator, genLogger, cfg.Gemini.MaxLogLength), nil
}
