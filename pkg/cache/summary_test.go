package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values  map[string]string
	ttls    map[string]time.Duration
	readErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	if s.readErr != nil {
		return "", s.readErr
	}
	v, ok := s.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.values[key] = value
	s.ttls[key] = ttl
	return nil
}

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestFetch(t *testing.T) {
	store := newMemoryStore()
	c := NewSummaryCache(store, time.Minute, newTestLogger())
	key := KPIKey("run-1", analytics.Filter{})

	calls := 0
	compute := func(context.Context) (analytics.KPIs, error) {
		calls++
		return analytics.KPIs{Accidents: 3}, nil
	}

	first, err := Fetch(context.Background(), c, key, compute)
	require.NoError(t, err)
	second, err := Fetch(context.Background(), c, key, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Minute, store.ttls[key])
}

func TestFetchFallsBackOnStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.readErr = errors.New("connection refused")
	c := NewSummaryCache(store, time.Minute, newTestLogger())

	got, err := Fetch(context.Background(), c, "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	store.readErr = nil
	store.values["bad"] = "{not json"
	got, err = Fetch(context.Background(), c, "bad", func(context.Context) (int, error) { return 8, nil })
	require.NoError(t, err)
	assert.Equal(t, 8, got)
	assert.Equal(t, "8", store.values["bad"])
}

func TestFetchWithoutCache(t *testing.T) {
	got, err := Fetch(context.Background(), nil, "k", func(context.Context) (string, error) { return "v", nil })
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	_, err = Fetch(context.Background(), nil, "k", func(context.Context) (string, error) { return "", errors.New("boom") })
	assert.Error(t, err)
}

func TestKeysSeparateRunsAndFilters(t *testing.T) {
	filter := analytics.Filter{Departments: []string{"75"}}
	assert.NotEqual(t, KPIKey("run-1", filter), KPIKey("run-2", filter))
	assert.NotEqual(t, KPIKey("run-1", filter), KPIKey("run-1", analytics.Filter{}))
	assert.NotEqual(t, BreakdownKey("run-1", "dep", 10, filter), BreakdownKey("run-1", "lum", 10, filter))
	assert.NotEqual(t, HotspotKey("run-1", 10, filter), HotspotKey("run-1", 20, filter))
	assert.Contains(t, HeatmapKey("run-1", filter), "run-1")
}

func TestPrime(t *testing.T) {
	store := newMemoryStore()
	c := NewSummaryCache(store, time.Hour, newTestLogger())
	require.NoError(t, c.Prime(context.Background(), "run-1", analytics.KPIs{Accidents: 5}))

	got, err := Fetch(context.Background(), c, KPIKey("run-1", analytics.Filter{}), func(context.Context) (analytics.KPIs, error) {
		t.Fatal("primed value should be served")
		return analytics.KPIs{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, got.Accidents)
}

func TestNewClientUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := NewClient(ctx, Config{Addr: "127.0.0.1:1"}, newTestLogger())
	assert.Error(t, err)
}
