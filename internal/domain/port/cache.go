package port

import (
	"context"
	"time"
)

// CachePort is the read-side cache. Values are opaque bytes; the caller picks
// the key and the TTL per operation. A miss is (nil, nil), not an error.
type CachePort interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}
