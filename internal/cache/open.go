package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/matchnarrator/internal/store"
)

const (
	// memoryCleanupInterval is how often the in-process store drops expired entries
	memoryCleanupInterval = 10 * time.Minute
	// postgresPurgeInterval is how often expired http_cache rows are deleted
	postgresPurgeInterval = 15 * time.Minute
)

// Backend settings for NewStoreOpener
type BackendConfig struct {
	Backend     string
	RedisURL    string
	DatabaseURL string
}

// NewStoreOpener returns the opener for the configured backend. Nothing is
// dialed until the opener runs.
func NewStoreOpener(cfg BackendConfig, logger *logrus.Logger) (StoreOpener, error) {
	switch cfg.Backend {
	case "memory":
		return func() (Store, error) {
			return NewMemoryStore(memoryCleanupInterval), nil
		}, nil
	case "redis":
		return func() (Store, error) {
			rs, err := NewRedisStore(cfg.RedisURL)
			if err != nil {
				return nil, err
			}
			return rs, nil
		}, nil
	case "postgres":
		return func() (Store, error) {
			db, err := store.NewDatabase(cfg.DatabaseURL, logger)
			if err != nil {
				return nil, err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := db.RunMigrations(ctx); err != nil {
				db.Close()
				return nil, fmt.Errorf("migrating cache schema: %w", err)
			}
			ps := NewPostgresStore(db)
			ps.StartPurging(postgresPurgeInterval, logger)
			return ps, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
