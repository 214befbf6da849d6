package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the durable Store backed by a Redis server, matching the
// original deployment: one string value per session under the namespaced
// key, expiry handled by Redis TTL.
type Redis struct {
	client *redis.Client
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis connects and verifies the server is reachable.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{client: client}, nil
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, sessionID string, state []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, Key(sessionID), state, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := r.client.Get(ctx, Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// ListActive implements Store. Expired keys are evicted by Redis itself, so
// a key scan is the active set.
func (r *Redis) ListActive(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, keyPrefix+"*"+keySuffix, 100).Iterator()
	for iter.Next(ctx) {
		if id := SessionIDFromKey(iter.Val()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return ids, nil
}

// TTLRemaining implements TTLReporter.
func (r *Redis) TTLRemaining(ctx context.Context, sessionID string) (time.Duration, error) {
	d, err := r.client.TTL(ctx, Key(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	if d < 0 {
		// -2 means no key, -1 means no expiry set; neither happens for our
		// writes, treat both as gone.
		return 0, ErrNotFound
	}
	return d, nil
}

// Close implements Store.
func (r *Redis) Close() error { return r.client.Close() }
