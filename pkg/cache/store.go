package cache

import (
	"context"
	"time"
)

// Store is a key/value cache with per-entry expiry.
// Get returns errors.ErrCacheMiss when the key is absent or expired.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
	Clear(ctx context.Context) error
}
