package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrManagerClosed is returned by Client once the Manager is closed
var ErrManagerClosed = errors.New("cache manager closed")

// ManagerConfig configures the shared cached client
type ManagerConfig struct {
	TTL time.Duration
	// Timeout applies to each provider request, cache hits included
	Timeout time.Duration
	// Next is the transport used on cache misses; http.DefaultTransport if nil
	Next http.RoundTripper
}

// Manager owns the shared cached HTTP client. The client and its store are
// created on first use and every later call returns the same instance.
// A failure to open the store is permanent for the Manager's lifetime.
type Manager struct {
	cfg    ManagerConfig
	open   StoreOpener
	logger *logrus.Logger

	once      sync.Once
	client    *http.Client
	transport *Transport
	store     Store
	err       error
	ready     atomic.Bool

	mu     sync.Mutex
	closed bool
}

// NewManager creates a manager; nothing is opened until Client is called
func NewManager(open StoreOpener, cfg ManagerConfig, logger *logrus.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Manager{
		cfg:    cfg,
		open:   open,
		logger: logger,
	}
}

// Client returns the shared cached client, creating it on first use
func (m *Manager) Client() (*http.Client, error) {
	m.once.Do(m.init)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client, m.err
}

func (m *Manager) init() {
	st, err := m.open()
	if err != nil {
		m.err = fmt.Errorf("opening cache store: %w", err)
		m.logger.WithError(err).Error("HTTP cache unavailable")
		return
	}

	m.store = st
	m.transport = NewTransport(st, m.cfg.TTL, m.cfg.Next, m.logger)
	m.client = &http.Client{
		Transport: m.transport,
		Timeout:   m.cfg.Timeout,
	}
	m.ready.Store(true)

	m.logger.WithFields(logrus.Fields{
		"ttl":     m.cfg.TTL.String(),
		"timeout": m.cfg.Timeout.String(),
	}).Info("HTTP cache initialized")
}

// Stats reports cache counters, or false if the client was never created
func (m *Manager) Stats() (TransportStats, bool) {
	if !m.ready.Load() {
		return TransportStats{}, false
	}
	return m.transport.Stats(), true
}

// HealthCheck checks the backing store. A store that was never opened has
// nothing to check and reports nil.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if !m.ready.Load() {
		return nil
	}
	return m.store.HealthCheck(ctx)
}

// Close releases the store if it was opened. Later calls to Client fail
// with ErrManagerClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	// block a racing first use from opening after close
	m.once.Do(func() {})
	m.ready.Store(false)
	m.client = nil
	m.err = ErrManagerClosed

	if m.store != nil {
		return m.store.Close()
	}
	return nil
}
