package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/matchnarrator/internal/store"
)

// PostgresStore keeps cached responses in the http_cache table.
// Expired rows read as misses until Purge removes them.
type PostgresStore struct {
	db   *store.Database
	now  func() time.Time
	done chan struct{}
	stop sync.Once
	wg   sync.WaitGroup
}

// NewPostgresStore wraps a migrated database
func NewPostgresStore(db *store.Database) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now, done: make(chan struct{})}
}

// StartPurging runs Purge every interval until Close
func (ps *PostgresStore) StartPurging(interval time.Duration, logger *logrus.Logger) {
	ps.wg.Add(1)
	go func() {
		defer ps.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := ps.Purge(ctx)
				cancel()
				if err != nil {
					logger.WithError(err).Warn("Cache purge failed")
					continue
				}
				if n > 0 {
					logger.WithField("rows", n).Debug("Purged expired cache rows")
				}
			case <-ps.done:
				return
			}
		}
	}()
}

// Get retrieves an unexpired payload
func (ps *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `
		SELECT payload
		FROM http_cache
		WHERE cache_key = $1 AND expires_at > $2
	`

	var payload []byte
	err := ps.db.DB().QueryRowContext(ctx, query, key, ps.now()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying cache entry: %w", err)
	}
	return payload, true, nil
}

// Set upserts a payload with TTL
func (ps *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO http_cache (cache_key, payload, stored_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key) DO UPDATE
		SET payload = EXCLUDED.payload,
			stored_at = EXCLUDED.stored_at,
			expires_at = EXCLUDED.expires_at
	`

	now := ps.now()
	if _, err := ps.db.DB().ExecContext(ctx, query, key, value, now, now.Add(ttl)); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Purge deletes expired rows and reports how many were removed
func (ps *PostgresStore) Purge(ctx context.Context) (int64, error) {
	res, err := ps.db.DB().ExecContext(ctx, `DELETE FROM http_cache WHERE expires_at <= $1`, ps.now())
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

// HealthCheck pings the database
func (ps *PostgresStore) HealthCheck(ctx context.Context) error {
	return ps.db.HealthCheck(ctx)
}

// Close stops purging and closes the database connection
func (ps *PostgresStore) Close() error {
	ps.stop.Do(func() { close(ps.done) })
	ps.wg.Wait()
	return ps.db.Close()
}
