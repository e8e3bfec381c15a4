package out

import (
	"context"
	"time"
)

// Cache defines the outbound port for short-lived response caching.
type Cache interface {
	// GetJSON decodes the cached value into dest; found=false on a miss.
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
