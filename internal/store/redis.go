package store

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/talentbridge/diploma-verifier/internal/verification"
)

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

const defaultExtractionTTL = 24 * time.Hour

// ExtractionCache caches raw extractions per file path so re-verifying the
// same upload skips a second model round-trip. The decision is a pure
// function of the extraction, so serving from cache cannot change the
// outcome. Cache failures are logged and otherwise invisible to callers.
type ExtractionCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewExtractionCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ExtractionCache {
	if ttl <= 0 {
		ttl = defaultExtractionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtractionCache{rdb: rdb, ttl: ttl, logger: logger}
}

func extractionKey(filePath string) string {
	sum := sha256.Sum256([]byte(filePath))
	return fmt.Sprintf("diploma:extraction:%x", sum[:])
}

// Get returns the cached extraction for the file path, if any.
func (c *ExtractionCache) Get(ctx context.Context, filePath string) (*verification.Extraction, bool) {
	data, err := c.rdb.Get(ctx, extractionKey(filePath)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("extraction cache get failed", zap.Error(err))
		}
		return nil, false
	}

	var ext verification.Extraction
	if err := json.Unmarshal(data, &ext); err != nil {
		c.logger.Debug("extraction cache entry is corrupt", zap.Error(err))
		return nil, false
	}

	return &ext, true
}

// Put stores the extraction for the file path with the cache TTL.
func (c *ExtractionCache) Put(ctx context.Context, filePath string, ext *verification.Extraction) {
	if ext == nil {
		return
	}

	data, err := json.Marshal(ext)
	if err != nil {
		c.logger.Debug("extraction cache marshal failed", zap.Error(err))
		return
	}

	if err := c.rdb.Set(ctx, extractionKey(filePath), data, c.ttl).Err(); err != nil {
		c.logger.Debug("extraction cache set failed", zap.Error(err))
	}
}
