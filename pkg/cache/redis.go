package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a cache backed by Redis. Values are encoded by a Marshaler
// (JSON unless told otherwise).
type Redis[V any] struct {
	client    redis.UniversalClient
	marshaler Marshaler[V]
	opts      redisOptions
}

// NewRedis creates a Redis-backed cache over a client from pkg/redis.Open.
// A nil Marshaler selects JSONMarshaler.
//
//	states := cache.NewRedis[oauth.StateData](client, nil,
//	    cache.WithPrefix("oauth:state"),
//	    cache.WithRedisDefaultTTL(5*time.Minute),
//	)
func NewRedis[V any](client redis.UniversalClient, m Marshaler[V], opts ...RedisOption) *Redis[V] {
	o := redisOptions{defaultTTL: time.Hour}
	for _, opt := range opts {
		opt(&o)
	}
	if m == nil {
		m = JSONMarshaler[V]{}
	}

	return &Redis[V]{client: client, marshaler: m, opts: o}
}

// Get returns the value stored under key.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	return r.decode(r.client.Get(ctx, r.key(key)).Bytes())
}

// Set stores value under key. Negative TTLs store without expiry.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.marshaler.Marshal(value)
	if err != nil {
		return err
	}

	if ttl == 0 {
		ttl = r.opts.defaultTTL
	}
	// redis treats 0 as "no expiry"
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

// Take reads and deletes key atomically with GETDEL (Redis 6.2+).
func (r *Redis[V]) Take(ctx context.Context, key string) (V, error) {
	return r.decode(r.client.GetDel(ctx, r.key(key)).Bytes())
}

// Delete removes key.
func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Close is a no-op; the client is closed by its owner (see pkg/redis.Shutdown).
func (r *Redis[V]) Close() error {
	return nil
}

func (r *Redis[V]) decode(data []byte, err error) (V, error) {
	var zero V
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return r.marshaler.Unmarshal(data)
}

func (r *Redis[V]) key(key string) string {
	if r.opts.prefix == "" {
		return key
	}
	return r.opts.prefix + ":" + key
}

var _ Cache[any] = (*Redis[any])(nil)
