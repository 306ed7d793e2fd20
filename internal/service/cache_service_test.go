package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/class-engine-api/pkg/errors"
)

type erroringCacheStore struct {
	err     error
	lastTTL time.Duration
}

func (s *erroringCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	return s.err
}

func (s *erroringCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.lastTTL = ttl
	return s.err
}

func (s *erroringCacheStore) Delete(ctx context.Context, keys ...string) error {
	return s.err
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	metrics := NewMetricsService()
	store := newCacheRepoFake()
	svc := NewCacheService(store, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var dest map[string]int
	hit, err := svc.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", map[string]int{"v": 1}, 0))
	hit, err = svc.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, dest["v"])

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheMisses))

	require.NoError(t, svc.Invalidate(ctx, "k"))
	assert.False(t, store.has("k"))
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	store := &erroringCacheStore{err: errors.New("unreachable")}
	svc := NewCacheService(store, nil, 0, nil, false)
	ctx := context.Background()

	hit, err := svc.Get(ctx, "k", new(string))
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, svc.Set(ctx, "k", "v", 0))
	assert.NoError(t, svc.Invalidate(ctx, "k"))

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.Invalidate(ctx, "k"))
}

func TestCacheServiceStoreFailure(t *testing.T) {
	store := &erroringCacheStore{err: errors.New("connection reset")}
	svc := NewCacheService(store, nil, 2*time.Minute, nil, true)
	ctx := context.Background()

	hit, err := svc.Get(ctx, "k", new(string))
	assert.Error(t, err)
	assert.False(t, hit)

	assert.Error(t, svc.Set(ctx, "k", "v", 0))
	assert.Equal(t, 2*time.Minute, store.lastTTL)

	store.err = appErrors.ErrCacheMiss
	hit, err = svc.Get(ctx, "k", new(string))
	assert.NoError(t, err)
	assert.False(t, hit)
}
