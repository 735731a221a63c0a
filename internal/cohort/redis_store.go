package cohort

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// RedisStore shares cohort tables across replicas. Calls go through a circuit
// breaker so an unhealthy Redis is skipped quickly instead of stalling every
// scoring request.
type RedisStore struct {
	client  redis.Cmdable
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewRedisStore wraps client. The breaker opens after three consecutive
// failures, or a failure ratio above 5% once 20 calls have been seen.
func NewRedisStore(client redis.Cmdable, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	st := gobreaker.Settings{
		Name:     "cohort-redis",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &RedisStore{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(st),
		timeout: 250 * time.Millisecond,
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) (analysis.Table, bool, error) {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		data, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	data, _ := res.([]byte)
	if data == nil {
		return nil, false, nil
	}

	var table analysis.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, false, fmt.Errorf("decode redis table %s: %w", key, err)
	}
	return table, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, table analysis.Table, ttl time.Duration) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode table %s: %w", key, err)
	}
	_, err = r.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return nil, r.client.Set(ctx, key, string(data), ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// BreakerState reports the circuit breaker state for health output.
func (r *RedisStore) BreakerState() string {
	return r.breaker.State().String()
}
