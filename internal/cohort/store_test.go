package cohort

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/cache"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTable = analysis.Table{
	"highLeverage_WPA": {Mean: 0.08, Std: 0.12},
	"hrv_rmssd":        {Mean: 52, Std: 14},
}

// fakeStore records calls and can be told to fail.
type fakeStore struct {
	data    map[string]analysis.Table
	getErr  error
	putErr  error
	pingErr error
	gets    int
	puts    int
	lastTTL time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]analysis.Table)}
}

func (f *fakeStore) Get(_ context.Context, key string) (analysis.Table, bool, error) {
	f.gets++
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	t, ok := f.data[key]
	return t, ok, nil
}

func (f *fakeStore) Put(_ context.Context, key string, t analysis.Table, ttl time.Duration) error {
	f.puts++
	f.lastTTL = ttl
	if f.putErr != nil {
		return f.putErr
	}
	f.data[key] = t
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	c := cache.NewCache(time.Minute)
	defer c.Close()
	store := NewMemoryStore(c)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "k", testTable, time.Minute))
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testTable, got)

	require.NoError(t, store.Put(ctx, "short", testTable, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok, err = store.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)

	stats := store.Stats()
	assert.EqualValues(t, 1, stats["hits"])
}

func TestMemoryStoreCorruptEntry(t *testing.T) {
	c := cache.NewCache(time.Minute)
	defer c.Close()
	c.Set("k", []byte("not json"))

	_, ok, err := NewMemoryStore(c).Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestTieredGetBackfills(t *testing.T) {
	ctx := context.Background()
	fast, slow := newFakeStore(), newFakeStore()
	slow.data["k"] = testTable

	got, ok, err := NewTiered(10*time.Minute, fast, slow).Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testTable, got)
	assert.Equal(t, testTable, fast.data["k"])
	assert.Equal(t, 10*time.Minute, fast.lastTTL)
	assert.Zero(t, slow.puts)
}

func TestTieredBackfillHonoursTTL(t *testing.T) {
	ctx := context.Background()
	c := cache.NewCache(time.Hour)
	defer c.Close()
	slow := newFakeStore()
	slow.data["k"] = testTable

	tiers := NewTiered(time.Millisecond, NewMemoryStore(c), slow)
	_, ok, err := tiers.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)
	_, ok, err = NewMemoryStore(c).Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "backfilled entry outlived the configured TTL")

	assert.Equal(t, DefaultTTL, NewTiered(0).TTL)
}

func TestTieredSkipsFailingTier(t *testing.T) {
	ctx := context.Background()
	broken, good := newFakeStore(), newFakeStore()
	broken.getErr = errors.New("connection refused")
	good.data["k"] = testTable

	got, ok, err := NewTiered(time.Minute, broken, good).Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testTable, got)

	_, ok, err = NewTiered(time.Minute, broken, newFakeStore()).Get(ctx, "other")
	assert.ErrorContains(t, err, "connection refused")
	assert.False(t, ok)
}

func TestTieredPutAndPing(t *testing.T) {
	ctx := context.Background()
	a, b := newFakeStore(), newFakeStore()
	b.putErr = errors.New("read only")
	b.pingErr = errors.New("down")

	err := NewTiered(time.Hour, a, b).Put(ctx, "k", testTable, time.Minute)
	assert.ErrorContains(t, err, "read only")
	assert.Equal(t, testTable, a.data["k"])

	assert.Equal(t, time.Minute, a.lastTTL)
	assert.ErrorContains(t, NewTiered(time.Hour, a, b).Ping(ctx), "down")
	assert.NoError(t, NewTiered(time.Hour, a).Ping(ctx))
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "cohorts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(openTestDB(t))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "k", testTable, time.Hour))
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testTable, got)

	updated := analysis.Table{"hrv_rmssd": {Mean: 60, Std: 10}}
	require.NoError(t, store.Put(ctx, "k", updated, time.Hour))
	got, _, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	assert.NoError(t, store.Ping(ctx))
}

func TestSQLiteStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(openTestDB(t))
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "old", testTable, time.Minute))
	require.NoError(t, store.Put(ctx, "fresh", testTable, time.Hour))

	now = now.Add(10 * time.Minute)
	_, ok, err := store.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, ok, err = store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}
