package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultGuardTTL bounds how long a key may linger in Redis. It only caps
// memory use; freshness is still decided from the stored timestamp.
const DefaultGuardTTL = time.Hour

type envelope[V any] struct {
	Value    V         `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Redis is a Cache shared between server replicas. Values are stored as JSON
// envelopes under Prefix+key. Redis errors read as a miss and failed writes are
// logged and dropped, so an unreachable server degrades to "always fetch".
type Redis[V any] struct {
	client   redis.UniversalClient
	prefix   string
	guardTTL time.Duration
	now      func() time.Time
}

// NewRedis wraps an existing client. prefix namespaces the keys.
func NewRedis[V any](client redis.UniversalClient, prefix string) *Redis[V] {
	return &Redis[V]{
		client:   client,
		prefix:   prefix,
		guardTTL: DefaultGuardTTL,
		now:      time.Now,
	}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Get returns the value for key if it was stored less than maxAge ago.
func (r *Redis[V]) Get(ctx context.Context, key string, maxAge time.Duration) (V, bool) {
	var zero V
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache: redis get failed", "key", key, "err", err)
		}
		return zero, false
	}
	var env envelope[V]
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Warn("cache: redis entry undecodable", "key", key, "err", err)
		return zero, false
	}
	if !fresh(env.StoredAt, r.now(), maxAge) {
		return zero, false
	}
	return env.Value, true
}

// Set stores value under key with the guard TTL.
func (r *Redis[V]) Set(ctx context.Context, key string, value V) {
	raw, err := json.Marshal(envelope[V]{Value: value, StoredAt: r.now().UTC()})
	if err != nil {
		slog.Warn("cache: encode entry", "key", key, "err", err)
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, raw, r.guardTTL).Err(); err != nil {
		slog.Warn("cache: redis set failed", "key", key, "err", err)
	}
}
