package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Version is reported in every response envelope.
const Version = "trait-engine/1.0.0"

// ErrScoring marks an unexpected failure inside the computation itself.
var ErrScoring = errors.New("scoring failed")

// BaselineSource supplies cohort baselines. Implementations never fail:
// unknown cohorts and backend errors resolve to a fallback table.
type BaselineSource interface {
	// Canonical normalizes a cohort key, mapping unknown or malformed keys
	// to the fallback cohort.
	Canonical(cohort string) string
	// Table returns the baseline table for a cohort in the context of a dimension.
	Table(ctx context.Context, cohort string, d Dimension) Table
}

// StaticBaselines serves one table for every cohort and dimension.
type StaticBaselines Table

func (s StaticBaselines) Canonical(cohort string) string { return cohort }

func (s StaticBaselines) Table(context.Context, string, Dimension) Table { return Table(s) }

// Analyzer runs the scoring pipeline for every registered dimension.
type Analyzer struct {
	baselines BaselineSource
	params    Params
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithParams overrides calibration constants; zero fields keep their defaults.
func WithParams(p Params) Option {
	return func(a *Analyzer) { a.params = p.withDefaults() }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock sets the clock used when a request has no as-of time.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAnalyzer creates an analyzer reading baselines from src. A nil source
// standardizes every feature against DefaultBaseline.
func NewAnalyzer(src BaselineSource, opts ...Option) *Analyzer {
	if src == nil {
		src = StaticBaselines{}
	}
	a := &Analyzer{
		baselines: src,
		params:    DefaultParams(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "analyzer")
	return a
}

// Params returns the calibration in effect.
func (a *Analyzer) Params() Params { return a.params }

// Trace exposes the intermediate values behind one score record.
type Trace struct {
	Dimension   string             `json:"dimension"`
	Z           float64            `json:"z"`
	RawScore    float64            `json:"raw_score"`
	Shrink      float64            `json:"shrink"`
	FinalScore  float64            `json:"final_score"`
	Conflict    float64            `json:"conflict"`
	Factors     ConfidenceFactors  `json:"factors"`
	HalfLife    float64            `json:"half_life_days"`
	Standardize map[string]float64 `json:"z_by_feature"`
}

type prepared struct {
	cohort   string
	asOf     time.Time
	features []FeatureObservation
	nEff     float64
	halfLife float64
}

func (a *Analyzer) prepare(req Request) (prepared, error) {
	features := make([]FeatureObservation, 0, len(req.Features))
	for _, f := range req.Features {
		s, err := sanitize(f)
		if err != nil {
			return prepared{}, err
		}
		features = append(features, s)
	}
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = a.now()
	}
	asOf = asOf.UTC()
	// The season follows the requested sport even when the cohort itself
	// falls back to the default baselines.
	cohort := a.baselines.Canonical(req.Cohort)
	return prepared{
		cohort:   cohort,
		asOf:     asOf,
		features: features,
		nEff:     EffectiveN(features),
		halfLife: a.params.HalfLife(req.Cohort, asOf),
	}, nil
}

// Score computes one record per registered dimension, in registry order.
// Empty feature lists produce neutral records rather than errors; the only
// errors are ErrInvalidFeature for malformed observations and ErrScoring.
func (a *Analyzer) Score(ctx context.Context, req Request) (Response, error) {
	p, err := a.prepare(req)
	if err != nil {
		return Response{}, err
	}

	results, err := a.run(ctx, p)
	if err != nil {
		return Response{}, err
	}

	records := make([]ScoreRecord, len(results))
	for i := range results {
		records[i] = results[i].record
	}
	return Response{
		AthleteID: req.AthleteID,
		AsOf:      p.asOf,
		Cohort:    p.cohort,
		Version:   Version,
		Scores:    records,
	}, nil
}

// Explain returns the intermediate values for every dimension.
func (a *Analyzer) Explain(ctx context.Context, req Request) ([]Trace, error) {
	p, err := a.prepare(req)
	if err != nil {
		return nil, err
	}
	results, err := a.run(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]Trace, len(results))
	for i := range results {
		out[i] = results[i].trace
	}
	return out, nil
}

type dimensionResult struct {
	record ScoreRecord
	trace  Trace
}

// run fans the dimensions out; each goroutine writes only its own slot.
func (a *Analyzer) run(ctx context.Context, p prepared) ([]dimensionResult, error) {
	results := make([]dimensionResult, numDimensions)
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range registry {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %s: %v", ErrScoring, d.Name, r)
				}
			}()
			table := a.baselines.Table(gctx, p.cohort, d)
			results[d.ID] = a.scoreDimension(d, p, table)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Analyzer) scoreDimension(d Dimension, p prepared, table Table) dimensionResult {
	params := a.params
	zs := standardize(p.features, table, params.StdEpsilon)

	z := Aggregate(d, zs)
	raw := params.Squash(z)
	s := params.ShrinkWeight(p.nEff)
	final := Shrink(raw, s)

	zvals := make([]float64, len(zs))
	byFeature := make(map[string]float64, len(zs))
	for i, f := range zs {
		zvals[i] = f.Z
		byFeature[f.Name] = f.Z
	}
	conflict := params.Conflict(zvals)
	factors := params.Confidence(p.features, p.nEff, conflict, p.halfLife)

	record := ScoreRecord{
		Name:            d.Name,
		Score:           round(final, 1),
		Confidence:      round(factors.Value(), 3),
		Percentile:      round(NormalCDF(z), 3),
		TopKFeatures:    TopContributors(zs, params.TopK),
		EvidenceSummary: params.Summarize(p.features, p.nEff),
		Notes: Notes{
			ShrinkageApplied:  s > params.ShrinkNoteThreshold,
			ConflictsDetected: conflict > params.ConflictThreshold,
		},
	}

	a.logger.Debug("dimension scored",
		"dimension", d.Slug,
		"cohort", p.cohort,
		"z", z,
		"raw", raw,
		"shrink", s,
		"score", record.Score,
		"confidence", record.Confidence,
	)

	return dimensionResult{
		record: record,
		trace: Trace{
			Dimension:   d.Name,
			Z:           z,
			RawScore:    raw,
			Shrink:      s,
			FinalScore:  final,
			Conflict:    conflict,
			Factors:     factors,
			HalfLife:    p.halfLife,
			Standardize: byFeature,
		},
	}
}
