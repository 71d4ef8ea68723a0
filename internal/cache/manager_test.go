package cache

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ReturnsSameClient(t *testing.T) {
	var opens atomic.Int64
	manager := NewManager(func() (Store, error) {
		opens.Add(1)
		return NewMemoryStore(0), nil
	}, ManagerConfig{}, quietLogger())
	defer manager.Close()

	first, err := manager.Client()
	require.NoError(t, err)
	second, err := manager.Client()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), opens.Load())
}

func TestManager_ConcurrentFirstUse(t *testing.T) {
	var opens atomic.Int64
	manager := NewManager(func() (Store, error) {
		opens.Add(1)
		time.Sleep(20 * time.Millisecond)
		return NewMemoryStore(0), nil
	}, ManagerConfig{TTL: time.Minute}, quietLogger())
	defer manager.Close()

	clients := make([]*http.Client, 16)
	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := manager.Client()
			assert.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), opens.Load())
	for _, c := range clients[1:] {
		assert.Same(t, clients[0], c)
	}
}

func TestManager_LazyUntilFirstUse(t *testing.T) {
	opened := false
	manager := NewManager(func() (Store, error) {
		opened = true
		return NewMemoryStore(0), nil
	}, ManagerConfig{}, quietLogger())

	_, ready := manager.Stats()
	assert.False(t, ready)
	assert.False(t, opened)

	_, err := manager.Client()
	require.NoError(t, err)
	assert.True(t, opened)

	_, ready = manager.Stats()
	assert.True(t, ready)
}

func TestManager_OpenFailureIsPermanent(t *testing.T) {
	var opens atomic.Int64
	manager := NewManager(func() (Store, error) {
		opens.Add(1)
		return nil, errors.New("connection refused")
	}, ManagerConfig{}, quietLogger())

	client, err := manager.Client()
	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = manager.Client()
	assert.Error(t, err)
	assert.Equal(t, int64(1), opens.Load())
}

func TestManager_CloseBeforeUse(t *testing.T) {
	manager := NewManager(func() (Store, error) {
		t.Fatal("store should not be opened after close")
		return nil, nil
	}, ManagerConfig{}, quietLogger())

	require.NoError(t, manager.Close())
	_, err := manager.Client()
	assert.ErrorIs(t, err, ErrManagerClosed)
}

func TestManager_ClientFailsAfterClose(t *testing.T) {
	manager := NewManager(func() (Store, error) {
		return NewMemoryStore(0), nil
	}, ManagerConfig{}, quietLogger())

	client, err := manager.Client()
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.NoError(t, manager.HealthCheck(context.Background()))

	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	client, err = manager.Client()
	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrManagerClosed)
	_, ready := manager.Stats()
	assert.False(t, ready)
}

func TestManager_HealthCheckReportsStoreFailure(t *testing.T) {
	manager := NewManager(func() (Store, error) {
		return failingStore{}, nil
	}, ManagerConfig{}, quietLogger())

	assert.NoError(t, manager.HealthCheck(context.Background()), "unopened store has nothing to check")

	_, err := manager.Client()
	require.NoError(t, err)
	assert.ErrorContains(t, manager.HealthCheck(context.Background()), "store offline")
}
