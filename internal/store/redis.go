// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const opTimeout = 3 * time.Second

// RedisStore is a Redis-backed implementation of Store. Records are stored
// as JSON strings; the packaging queue is a Redis list.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore connects to Redis using a redis:// URL and verifies the
// connection with a ping.
func NewRedisStore(redisURL string, logger zerolog.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = opTimeout
	opts.WriteTimeout = opTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("connected to redis")

	return &RedisStore{client: client, logger: logger}, nil
}

// Get retrieves and decodes the record for key. A missing key is not an
// error; it reports found=false.
func (s *RedisStore) Get(ctx context.Context, key string) (TranscodeInfo, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var info TranscodeInfo
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return info, false, nil
	}
	if err != nil {
		return info, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("corrupt record in redis")
		return info, false, fmt.Errorf("failed to unmarshal value for key %s: %w", key, err)
	}
	return info, true, nil
}

// Set stores the record for key, refreshing the TTL.
func (s *RedisStore) Set(ctx context.Context, key string, info TranscodeInfo, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// SetNX stores the record only when the key is absent, reporting whether the
// write won.
func (s *RedisStore) SetNX(ctx context.Context, key string, info TranscodeInfo, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := json.Marshal(info)
	if err != nil {
		return false, fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}
	won, err := s.client.SetNX(ctx, key, raw, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to setnx key %s: %w", key, err)
	}
	return won, nil
}

// Delete removes the record for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// EnqueuePackaging pushes payload onto the named packaging queue list.
func (s *RedisStore) EnqueuePackaging(ctx context.Context, queue string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := s.client.RPush(ctx, queue, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue packaging job on %s: %w", queue, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
