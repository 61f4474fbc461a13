package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Cache is a key-value store with per-entry expiry.
//
// TTL semantics for Set:
//   - Positive duration: entry expires after this duration
//   - Zero: the cache's default TTL
//   - Negative: entry never expires
type Cache[V any] interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (V, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Take returns the value stored under key and removes it in the same
	// step, so a value is handed out at most once. Returns ErrNotFound when
	// the key is missing or expired.
	Take(ctx context.Context, key string) (V, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases background resources.
	Close() error
}

// Marshaler converts values for byte-oriented backends such as Redis.
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// JSONMarshaler is the default Marshaler.
type JSONMarshaler[V any] struct{}

func (JSONMarshaler[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (JSONMarshaler[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}
