package cache

import (
	"context"
	"time"
)

// DefaultTTL bounds how stale a cached provider response may be
const DefaultTTL = time.Hour

// Store is a time-expiring key-value store for raw response payloads.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the payload and true on a hit, false on a miss or expiry
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// HealthCheck reports whether the backing service is reachable
	HealthCheck(ctx context.Context) error
	Close() error
}

// StoreOpener lazily opens the backing store on first use
type StoreOpener func() (Store, error)
