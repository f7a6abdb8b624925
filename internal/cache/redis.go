package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Protagonist888/schwab-earnings-batch/internal/config"
	"github.com/Protagonist888/schwab-earnings-batch/internal/metrics"
	"github.com/Protagonist888/schwab-earnings-batch/internal/models"
)

// DefaultTTL is how long a summary survives without being refreshed
const DefaultTTL = 30 * 24 * time.Hour

// ErrNotFound is returned by Get when no summary is cached for a symbol
var ErrNotFound = errors.New("summary not cached")

// KV is the subset of the Redis client the store needs
type KV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore persists earnings summaries under a per-symbol key with a TTL
type RedisStore struct {
	kv      KV
	prefix  string
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewRedisClient creates a go-redis client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisStore creates a store writing through kv
func NewRedisStore(kv KV, cfg config.RedisConfig, m *metrics.Metrics) *RedisStore {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		kv:      kv,
		prefix:  cfg.KeyPrefix,
		ttl:     ttl,
		metrics: m,
	}
}

// Key returns the cache key for symbol
func (s *RedisStore) Key(symbol string) string {
	return s.prefix + symbol
}

// Store writes summary, replacing any previous value and resetting the TTL
func (s *RedisStore) Store(ctx context.Context, summary *models.EarningsSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary for %s: %w", summary.Symbol, err)
	}

	err = s.kv.Set(ctx, s.Key(summary.Symbol), data, s.ttl).Err()
	s.metrics.RecordCacheWrite(err)
	if err != nil {
		return fmt.Errorf("failed to cache summary for %s: %w", summary.Symbol, err)
	}
	return nil
}

// Get reads the cached summary for symbol
func (s *RedisStore) Get(ctx context.Context, symbol string) (*models.EarningsSummary, error) {
	data, err := s.kv.Get(ctx, s.Key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached summary for %s: %w", symbol, err)
	}

	var summary models.EarningsSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached summary for %s: %w", symbol, err)
	}
	return &summary, nil
}
