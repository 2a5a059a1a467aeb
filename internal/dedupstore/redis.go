// Package dedupstore implements the Dedup Store port: a set of job ids
// that must persist across pipeline runs, so a job is ever processed at
// most once. Two backings are provided, selected by configuration: Redis
// (production) and a local file (offline/local runs).
package dedupstore

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hipanai/jobpipeline/internal/domain"
)

const redisKeyPrefix = "jobpipeline:seen:"

// RedisStore backs the Dedup Store with a Redis key per job id.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a RedisStore from a redis:// connection URL.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("op=dedupstore.redis.new: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opt)}, nil
}

// NewRedisStoreFromClient wraps an existing client, used by tests to point
// at a miniredis instance.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Contains reports whether jobID has already been recorded as seen.
func (s *RedisStore) Contains(ctx domain.Context, jobID string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+jobID).Result()
	if err != nil {
		return false, fmt.Errorf("op=dedupstore.redis.contains: %w", err)
	}
	return n > 0, nil
}

// Add records jobID as seen. The key has no expiry: a job is seen at most
// once ever, not once per window.
func (s *RedisStore) Add(ctx domain.Context, jobID string) error {
	if err := s.client.Set(ctx, redisKeyPrefix+jobID, 1, 0).Err(); err != nil {
		return fmt.Errorf("op=dedupstore.redis.add: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }

// Ping satisfies app.Pinger for readiness checks.
func (s *RedisStore) Ping(ctx domain.Context) error {
	return s.client.Ping(ctx).Err()
}
