package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/timeslot"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type memoryCache struct {
	items  map[string][]byte
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	cache := newMemoryCache()
	svc := NewCacheService(cache, nil, time.Minute, zap.NewNop(), false)

	svc.Set(context.Background(), "k", "v", 0)
	assert.Empty(t, cache.items)

	var out string
	assert.False(t, svc.Get(context.Background(), "k", &out))

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.False(t, nilSvc.Get(context.Background(), "k", &out))
	nilSvc.Invalidate(context.Background(), "*")
}

func TestCacheServiceRecordsHitsAndMisses(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMemoryCache(), metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out map[string]int
	assert.False(t, svc.Get(ctx, "timetable:1:detail", &out))
	svc.Set(ctx, "timetable:1:detail", map[string]int{"entries": 3}, 0)
	require.True(t, svc.Get(ctx, "timetable:1:detail", &out))
	assert.Equal(t, 3, out["entries"])

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
}

func TestCacheServiceFailureFallsThrough(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	svc := NewCacheService(cache, nil, time.Minute, zap.NewNop(), true)

	var out string
	assert.False(t, svc.Get(context.Background(), "k", &out))
}

func TestMetricsServiceCountsWorkflowEvents(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordTransition("booking_request", "pending", "approved")
	metrics.RecordConflict(timeslot.DimensionClassroom)
	metrics.RecordConflict(timeslot.DimensionFaculty)
	metrics.ObserveHTTPRequest("GET", "/api/timetables", 200, 20*time.Millisecond)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.WorkflowTransitions)
	assert.Equal(t, uint64(2), snap.ConflictsDetected)
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 20, snap.AverageRequestDurationMs, 0.5)

	var nilMetrics *MetricsService
	nilMetrics.RecordTransition("x", "a", "b")
	nilMetrics.RecordConflict(timeslot.DimensionResource)
	assert.Equal(t, uint64(0), nilMetrics.Snapshot().ConflictsDetected)
}
