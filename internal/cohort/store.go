package cohort

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
	"github.com/ahump20/lone-star-legends-championship-sub006/internal/cache"
)

// Store persists computed baseline tables under a cache key. A miss is
// reported as (nil, false, nil); errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (analysis.Table, bool, error)
	Put(ctx context.Context, key string, table analysis.Table, ttl time.Duration) error
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MemoryStore keeps JSON snapshots of tables in the in-process TTL cache.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore wraps c. A nil cache gets a private one.
func NewMemoryStore(c *cache.Cache) *MemoryStore {
	if c == nil {
		c = cache.NewCache(DefaultTTL)
	}
	return &MemoryStore{cache: c}
}

func (m *MemoryStore) Get(_ context.Context, key string) (analysis.Table, bool, error) {
	data, found := m.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	var table analysis.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, false, fmt.Errorf("decode cached table %s: %w", key, err)
	}
	return table, true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, table analysis.Table, ttl time.Duration) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode table %s: %w", key, err)
	}
	m.cache.SetWithTTL(key, data, ttl)
	return nil
}

// Stats exposes the underlying cache statistics.
func (m *MemoryStore) Stats() map[string]interface{} {
	return m.cache.Stats()
}

// Tiered reads through stores in order and backfills faster tiers on a hit
// in a slower one. Writes go to every tier. Backfilled entries live for TTL.
type Tiered struct {
	Stores []Store
	TTL    time.Duration
}

// NewTiered orders stores fastest first. A non-positive ttl means DefaultTTL.
func NewTiered(ttl time.Duration, stores ...Store) *Tiered {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tiered{Stores: stores, TTL: ttl}
}

func (t *Tiered) Get(ctx context.Context, key string) (analysis.Table, bool, error) {
	var errs []error
	for i, s := range t.Stores {
		table, ok, err := s.Get(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		for _, upper := range t.Stores[:i] {
			// Backfill is best effort; the hit is already in hand.
			_ = upper.Put(ctx, key, table, t.TTL)
		}
		return table, true, nil
	}
	return nil, false, errors.Join(errs...)
}

func (t *Tiered) Put(ctx context.Context, key string, table analysis.Table, ttl time.Duration) error {
	var errs []error
	for _, s := range t.Stores {
		if err := s.Put(ctx, key, table, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ping checks every tier that supports it.
func (t *Tiered) Ping(ctx context.Context) error {
	var errs []error
	for _, s := range t.Stores {
		if p, ok := s.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
