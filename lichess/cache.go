package lichess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/logger"
	"github.com/Dosada05/chess-league/models"
)

const gameKeyPrefix = "lichess:game:"

// CachedSource keeps finished game exports in Redis. Exports of finished
// games never change, so entries only expire to bound memory.
type CachedSource struct {
	source GameSource
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedSource(source GameSource, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedSource {
	return &CachedSource{source: source, rdb: rdb, ttl: ttl, logger: logger.OrNop(log)}
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// GetGame serves from the cache and falls back to the wrapped source.
// Cache failures are logged and never fail the call.
func (c *CachedSource) GetGame(ctx context.Context, id string) ([]byte, error) {
	key := gameKeyPrefix + id

	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("lichess cache read failed", zap.String("game_id", id), zap.Error(err))
	}

	raw, err := c.source.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if status, ok := finishedStatus(raw); !ok {
		c.logger.Debug("lichess game not cached", zap.String("game_id", id), zap.String("status", status))
		return raw, nil
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("lichess cache write failed", zap.String("game_id", id), zap.Error(err))
	}
	return raw, nil
}

// finishedStatus reports whether the export has a final result. Payloads
// without a readable status are treated as unfinished.
func finishedStatus(raw []byte) (string, bool) {
	var export struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &export); err != nil || export.Status == "" {
		return export.Status, false
	}
	return export.Status, !models.LichessGameInProgress(export.Status)
}
