package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Config holds Redis adapter configuration.
type Config struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

// LatencyObserver receives the duration of each command.
type LatencyObserver func(command string, d time.Duration)

// Adapter provides operations against Redis.
type Adapter struct {
	client  *redis.Client
	observe LatencyObserver
}

// NewAdapter creates a new Redis adapter. No connection is made until the
// first command.
func NewAdapter(cfg Config) (*Adapter, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	return &Adapter{client: client, observe: func(string, time.Duration) {}}, nil
}

// SetLatencyObserver installs a per-command latency callback.
func (a *Adapter) SetLatencyObserver(fn LatencyObserver) {
	if fn != nil {
		a.observe = fn
	}
}

func (a *Adapter) track(command string, start time.Time) {
	a.observe(command, time.Since(start))
}

// Ping checks the Redis connection.
func (a *Adapter) Ping(ctx context.Context) error {
	defer a.track("ping", time.Now())
	return a.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// Get returns the value under key. A missing key is reported as found=false
// with a nil error.
func (a *Adapter) Get(ctx context.Context, key string) ([]byte, bool, error) {
	defer a.track("get", time.Now())
	data, err := a.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Set stores value under key. A zero ttl keeps the key forever.
func (a *Adapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	defer a.track("set", time.Now())
	if err := a.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (a *Adapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	defer a.track("del", time.Now())
	if err := a.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Keys lists keys matching pattern using SCAN.
func (a *Adapter) Keys(ctx context.Context, pattern string) ([]string, error) {
	defer a.track("scan", time.Now())
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := a.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Publish publishes a message to a Redis pub/sub channel.
func (a *Adapter) Publish(ctx context.Context, channel string, message []byte) error {
	defer a.track("publish", time.Now())
	return a.client.Publish(ctx, channel, message).Err()
}

// Subscribe subscribes to a Redis pub/sub channel.
func (a *Adapter) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return a.client.Subscribe(ctx, channel)
}
