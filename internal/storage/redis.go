package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned when a requested key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// TempKeyPrefix is the only namespace EvictTempKeys will touch. Everything
// else in the cache is business data and must never be evicted from here.
const TempKeyPrefix = "system:tmp:"

type RedisClient struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisClient(addr, password string, db int, logger *zap.Logger) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		logger: logger,
	}, nil
}

func (c *RedisClient) Close() error {
	return c.client.Close()
}

func (c *RedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// ProbeLatency measures the round-trip time of a PING.
func (c *RedisClient) ProbeLatency(ctx context.Context) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := c.client.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("failed to probe cache: %w", err)
	}

	return time.Since(start), nil
}

// SetJSON stores value as JSON under key with the given TTL.
func (c *RedisClient) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return nil
}

// GetJSON loads key and unmarshals it into dst. Missing keys return
// ErrCacheMiss.
func (c *RedisClient) GetJSON(ctx context.Context, key string, dst interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal key %s: %w", key, err)
	}

	return nil
}

// EvictTempKeys deletes every key under TempKeyPrefix and returns how many
// were removed. The prefix is enforced twice: the SCAN match pattern is
// derived from TempKeyPrefix, and each returned key is checked again before
// deletion so a pattern quirk can never reach business keys.
func (c *RedisClient) EvictTempKeys(ctx context.Context) (int, error) {
	pattern := TempKeyPrefix + "*"
	var cursor uint64
	deleted := 0

	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan temp keys: %w", err)
		}

		batch, skipped := filterTempKeys(keys)
		for _, key := range skipped {
			c.logger.Warn("Skipping non-temp key returned by scan",
				zap.String("key", key))
		}

		if len(batch) > 0 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return deleted, fmt.Errorf("failed to delete temp keys: %w", err)
			}
			deleted += len(batch)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	if deleted > 0 {
		c.logger.Info("Evicted temporary cache keys",
			zap.Int("count", deleted))
	}

	return deleted, nil
}

// filterTempKeys splits scan results into deletable temp keys and keys that
// escaped the namespace. SCAN matching happens server side, so the prefix is
// re-checked here before anything is deleted.
func filterTempKeys(keys []string) (batch, skipped []string) {
	for _, key := range keys {
		if strings.HasPrefix(key, TempKeyPrefix) {
			batch = append(batch, key)
			continue
		}
		skipped = append(skipped, key)
	}
	return batch, skipped
}
