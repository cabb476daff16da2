// Package cache keeps secondary-provider match details. Finished matches
// never change, so a detail fetched once can be reused across requests and
// polling rounds.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dota-tracker/internal/config"
	"dota-tracker/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const keyPrefix = "dota_tracker:match_detail:"

type MatchCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, matchID int64) (*domain.MatchDetail, error)
	Set(ctx context.Context, detail *domain.MatchDetail) error
}

type RedisMatchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisMatchCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisMatchCache {
	return &RedisMatchCache{client: client, ttl: ttl, logger: logger}
}

func makeKey(matchID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, matchID)
}

func (c *RedisMatchCache) Get(ctx context.Context, matchID int64) (*domain.MatchDetail, error) {
	data, err := c.client.Get(ctx, makeKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match detail %d: %w", matchID, err)
	}

	var detail domain.MatchDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		c.logger.Warn().Err(err).Int64("match_id", matchID).Msg("dropping undecodable cached match detail")
		c.client.Del(ctx, makeKey(matchID))
		return nil, nil
	}
	return &detail, nil
}

func (c *RedisMatchCache) Set(ctx context.Context, detail *domain.MatchDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal match detail %d: %w", detail.MatchID, err)
	}
	if err := c.client.Set(ctx, makeKey(detail.MatchID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set match detail %d: %w", detail.MatchID, err)
	}
	return nil
}

func (c *RedisMatchCache) Close() error {
	return c.client.Close()
}

// NoopMatchCache is used when no Redis address is configured.
type NoopMatchCache struct{}

func (NoopMatchCache) Get(context.Context, int64) (*domain.MatchDetail, error) { return nil, nil }
func (NoopMatchCache) Set(context.Context, *domain.MatchDetail) error          { return nil }

// New connects to Redis when REDIS_ADDR is set and falls back to a no-op
// cache otherwise. An unreachable server is logged and also falls back, so
// the tracker keeps working without its cache.
func New(cfg *config.Config, logger zerolog.Logger) MatchCache {
	if cfg.RedisAddr == "" {
		logger.Info().Msg("match cache disabled")
		return NoopMatchCache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, match cache disabled")
		_ = client.Close()
		return NoopMatchCache{}
	}

	logger.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.MatchCacheTTL).Msg("match cache connected")
	return NewRedisMatchCache(client, cfg.MatchCacheTTL, logger)
}

// Register closes the Redis connection pool when the application stops.
func Register(lc fx.Lifecycle, c MatchCache, logger zerolog.Logger) {
	redisCache, ok := c.(*RedisMatchCache)
	if !ok {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := redisCache.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing redis client")
			}
			return nil
		},
	})
}
