package cohort

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreGet(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, nil)

	data, err := json.Marshal(testTable)
	require.NoError(t, err)

	mock.ExpectGet("hit").SetVal(string(data))
	mock.ExpectGet("miss").RedisNil()

	got, ok, err := store.Get(ctx, "hit")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testTable, got)

	_, ok, err = store.Get(ctx, "miss")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStorePut(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, nil)

	data, err := json.Marshal(testTable)
	require.NoError(t, err)
	mock.ExpectSet("k", string(data), time.Hour).SetVal("OK")

	require.NoError(t, store.Put(ctx, "k", testTable, time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreBreakerOpens(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, nil)

	for i := 0; i < 3; i++ {
		mock.ExpectGet("k").SetErr(errors.New("i/o timeout"))
	}
	for i := 0; i < 3; i++ {
		_, _, err := store.Get(ctx, "k")
		require.Error(t, err)
	}
	assert.Equal(t, "open", store.BreakerState())

	// Open breaker short-circuits without touching Redis.
	_, ok, err := store.Get(ctx, "k")
	assert.ErrorContains(t, err, "circuit breaker is open")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreCorruptValue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, nil)
	mock.ExpectGet("k").SetVal("{")

	_, ok, err := store.Get(context.Background(), "k")
	assert.ErrorContains(t, err, "decode redis table")
	assert.False(t, ok)
}
