package external

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

const fingerprintKeyPrefix = "evidence:fingerprint:"

// FingerprintCache stores the hash of the last evidence successfully
// submitted per data UUID, so unchanged evidence is not posted twice.
type FingerprintCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewFingerprintCache creates a new Redis backed fingerprint cache
func NewFingerprintCache(config domain.CacheConfig) (*FingerprintCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewFingerprintCacheFromClient(client, config.FingerprintTTL), nil
}

// NewFingerprintCacheFromClient wraps an existing client. A zero ttl keeps
// fingerprints forever.
func NewFingerprintCacheFromClient(client *redis.Client, ttl time.Duration) *FingerprintCache {
	return &FingerprintCache{redis: client, ttl: ttl}
}

// GetFingerprint returns the stored fingerprint and whether one exists.
func (c *FingerprintCache) GetFingerprint(ctx context.Context, dataUUID string) (string, bool, error) {
	val, err := c.redis.Get(ctx, fingerprintKey(dataUUID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get fingerprint: %w", err)
	}
	return val, true, nil
}

// SetFingerprint records the fingerprint of a successful submission.
func (c *FingerprintCache) SetFingerprint(ctx context.Context, dataUUID, fingerprint string) error {
	if err := c.redis.Set(ctx, fingerprintKey(dataUUID), fingerprint, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set fingerprint: %w", err)
	}
	return nil
}

// InvalidateFingerprint forgets the fingerprint so the next submit is posted.
func (c *FingerprintCache) InvalidateFingerprint(ctx context.Context, dataUUID string) error {
	return c.redis.Del(ctx, fingerprintKey(dataUUID)).Err()
}

// Ping checks if Redis connection is alive
func (c *FingerprintCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *FingerprintCache) Close() error {
	return c.redis.Close()
}

func fingerprintKey(dataUUID string) string {
	return fingerprintKeyPrefix + dataUUID
}
