package cohort

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
)

// DefaultTTL is how long a computed table stays in a store.
const DefaultTTL = time.Hour

// CacheKey is the store key of a cohort table as seen by dimension d.
func CacheKey(cohort string, d analysis.Dimension) string {
	return fmt.Sprintf("cohort:v1:%s:%s", cohort, d.Slug)
}

// Metrics receives lookup outcomes: "hit", "miss" or "error".
type Metrics interface {
	RecordCohortLookup(result string)
}

// Provider resolves cohort keys and serves baseline tables, reading through
// a Store and computing from the seed on a miss. It never fails: store
// errors are logged and the seed answers instead.
type Provider struct {
	seed    Seed
	store   Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics Metrics
}

var _ analysis.BaselineSource = (*Provider)(nil)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

func WithTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

func WithLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithMetrics(m Metrics) ProviderOption {
	return func(p *Provider) { p.metrics = m }
}

// NewProvider builds a provider over seed. The default cohort is always
// present: if seed lacks one, the built-in default is added. A nil store
// disables caching.
func NewProvider(seed Seed, store Store, opts ...ProviderOption) *Provider {
	if seed == nil {
		seed = DefaultSeed()
	}
	if _, ok := seed[DefaultKey]; !ok {
		seed = Seed{DefaultKey: DefaultSeed()[DefaultKey]}.Merge(seed)
	}
	p := &Provider{
		seed:   seed,
		store:  store,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "cohort")
	return p
}

// Canonical maps raw to the most specific known cohort: the exact key, then
// sport.role when a level was given, then the default cohort.
func (p *Provider) Canonical(raw string) string {
	k, err := Parse(raw)
	if err != nil {
		return DefaultKey
	}
	for _, c := range k.candidates() {
		if _, ok := p.seed[c]; ok {
			return c
		}
	}
	return DefaultKey
}

// Table returns the baselines of cohort for dimension d. cohort is expected
// to be canonical; unknown keys get the default cohort.
func (p *Provider) Table(ctx context.Context, cohort string, d analysis.Dimension) analysis.Table {
	c, ok := p.seed[cohort]
	if !ok {
		c = p.seed[DefaultKey]
		cohort = DefaultKey
	}
	if p.store == nil {
		return c.TableFor(d)
	}

	key := CacheKey(cohort, d)
	table, found, err := p.store.Get(ctx, key)
	switch {
	case err != nil:
		p.record("error")
		p.logger.Warn("Cohort store read failed, using seed", "key", key, "error", err)
	case found:
		p.record("hit")
		return table
	default:
		p.record("miss")
	}

	table = c.TableFor(d)
	if err := p.store.Put(ctx, key, table, p.ttl); err != nil {
		p.logger.Warn("Cohort store write failed", "key", key, "error", err)
	}
	return table
}

func (p *Provider) record(result string) {
	if p.metrics != nil {
		p.metrics.RecordCohortLookup(result)
	}
}

// Keys lists the known cohorts in sorted order.
func (p *Provider) Keys() []string {
	return p.seed.Keys()
}

// Cohort returns the seed entry for a canonical key.
func (p *Provider) Cohort(key string) (Cohort, bool) {
	c, ok := p.seed[key]
	return c, ok
}

// Warm precomputes every cohort table into the store.
func (p *Provider) Warm(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	start := time.Now()
	var errs []error
	count := 0
	for _, key := range p.seed.Keys() {
		c := p.seed[key]
		for _, d := range analysis.Dimensions() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.store.Put(ctx, CacheKey(key, d), c.TableFor(d), p.ttl); err != nil {
				errs = append(errs, err)
				continue
			}
			count++
		}
	}
	p.logger.Info("Cohort tables warmed", "tables", count, "duration", time.Since(start))
	return errors.Join(errs...)
}

// Health pings the store when it supports it.
func (p *Provider) Health(ctx context.Context) error {
	if pinger, ok := p.store.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}
