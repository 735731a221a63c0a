package cohort

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
	"github.com/montanaflynn/stats"
	"gopkg.in/yaml.v3"
)

// Cohort is the baseline set of one peer group. Overrides are keyed by
// dimension slug and replace individual features of the shared table when
// that dimension is scored.
type Cohort struct {
	Key         string                    `json:"key" yaml:"key"`
	Description string                    `json:"description,omitempty" yaml:"description,omitempty"`
	Baselines   analysis.Table            `json:"baselines" yaml:"baselines"`
	Overrides   map[string]analysis.Table `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// TableFor returns the table used when scoring d. The result is a fresh map.
func (c Cohort) TableFor(d analysis.Dimension) analysis.Table {
	over := c.Overrides[d.Slug]
	out := make(analysis.Table, len(c.Baselines)+len(over))
	for name, b := range c.Baselines {
		out[name] = b
	}
	for name, b := range over {
		out[name] = b
	}
	return out
}

// Seed is the built-in or file-provided set of cohorts, keyed by cohort key.
type Seed map[string]Cohort

// Keys returns the cohort keys in sorted order.
func (s Seed) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns a new seed with other's cohorts layered over s.
func (s Seed) Merge(other Seed) Seed {
	out := make(Seed, len(s)+len(other))
	for k, c := range s {
		out[k] = c
	}
	for k, c := range other {
		out[k] = c
	}
	return out
}

// DefaultSeed is the documented fallback used whenever no store holds a
// cohort table. Values are league reference points, not fitted statistics.
func DefaultSeed() Seed {
	return Seed{
		DefaultKey: {
			Key:         DefaultKey,
			Description: "Cross-sport fallback",
			Baselines: analysis.Table{
				"highLeverage_WPA":    {Mean: 0.05, Std: 0.15},
				"decision_latency_ms": {Mean: 250, Std: 50},
				"hrv_rmssd":           {Mean: 50, Std: 15},
				"approach_tempo":      {Mean: 1.0, Std: 0.2},
				"error_rate_adverse":  {Mean: 0.12, Std: 0.05},
			},
		},
		"mlb.closer": {
			Key:         "mlb.closer",
			Description: "MLB relief pitchers used in save situations",
			Baselines: analysis.Table{
				"highLeverage_WPA":    {Mean: 0.08, Std: 0.12},
				"decision_latency_ms": {Mean: 230, Std: 35},
				"hrv_rmssd":           {Mean: 52, Std: 14},
				"approach_tempo":      {Mean: 1.05, Std: 0.15},
				"error_rate_adverse":  {Mean: 0.11, Std: 0.04},
			},
			Overrides: map[string]analysis.Table{
				analysis.ChampionAura.Get().Slug: {
					"highLeverage_WPA": {Mean: 0.10, Std: 0.15},
				},
			},
		},
		"mlb.starter": {
			Key:         "mlb.starter",
			Description: "MLB starting pitchers",
			Baselines: analysis.Table{
				"highLeverage_WPA":    {Mean: 0.04, Std: 0.10},
				"decision_latency_ms": {Mean: 245, Std: 40},
				"hrv_rmssd":           {Mean: 55, Std: 15},
				"pitches_per_inning":  {Mean: 15.8, Std: 1.6},
				"error_rate_adverse":  {Mean: 0.13, Std: 0.05},
			},
		},
		"nba.guard": {
			Key:         "nba.guard",
			Description: "NBA point and shooting guards",
			Baselines: analysis.Table{
				"clutch_ts_pct":       {Mean: 0.52, Std: 0.08},
				"usage_rate_q4":       {Mean: 0.24, Std: 0.05},
				"assist_turnover":     {Mean: 2.1, Std: 0.7},
				"decision_latency_ms": {Mean: 610, Std: 90},
				"hrv_rmssd":           {Mean: 62, Std: 16},
			},
		},
		"nfl.qb": {
			Key:         "nfl.qb",
			Description: "NFL quarterbacks",
			Baselines: analysis.Table{
				"epa_per_play":     {Mean: 0.05, Std: 0.12},
				"pressure_to_sack": {Mean: 0.19, Std: 0.05},
				"time_to_throw_ms": {Mean: 2750, Std: 250},
				"third_down_conv":  {Mean: 0.40, Std: 0.06},
			},
		},
		"ncaa-fb.qb": {
			Key:         "ncaa-fb.qb",
			Description: "NCAA FBS quarterbacks",
			Baselines: analysis.Table{
				"epa_per_play":     {Mean: 0.08, Std: 0.18},
				"completion_pct":   {Mean: 0.62, Std: 0.07},
				"time_to_throw_ms": {Mean: 2850, Std: 300},
				"third_down_conv":  {Mean: 0.41, Std: 0.08},
			},
		},
	}
}

// seedFile is the on-disk layout of a seed document. A baseline is either an
// explicit mean/std pair or a list of raw samples.
type seedFile struct {
	Cohorts map[string]cohortFile `yaml:"cohorts"`
}

type cohortFile struct {
	Description string                             `yaml:"description"`
	Baselines   map[string]baselineFile            `yaml:"baselines"`
	Overrides   map[string]map[string]baselineFile `yaml:"overrides"`
}

type baselineFile struct {
	Mean    *float64  `yaml:"mean"`
	Std     *float64  `yaml:"std"`
	Samples []float64 `yaml:"samples"`
}

func (b baselineFile) resolve() (analysis.Baseline, error) {
	if len(b.Samples) > 0 {
		if b.Mean != nil || b.Std != nil {
			return analysis.Baseline{}, errors.New("samples cannot be combined with mean/std")
		}
		if len(b.Samples) < 2 {
			return analysis.Baseline{}, errors.New("at least two samples are required")
		}
		mean, err := stats.Mean(b.Samples)
		if err != nil {
			return analysis.Baseline{}, fmt.Errorf("mean: %w", err)
		}
		std, err := stats.StandardDeviationSample(b.Samples)
		if err != nil {
			return analysis.Baseline{}, fmt.Errorf("std: %w", err)
		}
		if !(std > 0) {
			return analysis.Baseline{}, errors.New("samples have zero variance")
		}
		return analysis.Baseline{Mean: mean, Std: std}, nil
	}
	if b.Mean == nil || b.Std == nil {
		return analysis.Baseline{}, errors.New("mean and std are required")
	}
	if !(*b.Std > 0) {
		return analysis.Baseline{}, fmt.Errorf("std must be positive, got %v", *b.Std)
	}
	return analysis.Baseline{Mean: *b.Mean, Std: *b.Std}, nil
}

// ParseSeed decodes a YAML (or JSON) seed document. Every problem found is
// reported, not just the first.
func ParseSeed(r io.Reader) (Seed, error) {
	var doc seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	seed := make(Seed, len(doc.Cohorts))
	var errs []error
	for raw, cf := range doc.Cohorts {
		key, err := Parse(raw)
		if err != nil && raw != DefaultKey {
			errs = append(errs, err)
			continue
		}
		name := DefaultKey
		if raw != DefaultKey {
			name = key.String()
		}

		c := Cohort{
			Key:         name,
			Description: cf.Description,
			Baselines:   make(analysis.Table, len(cf.Baselines)),
		}
		for feature, bf := range cf.Baselines {
			b, err := bf.resolve()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %s: %w", name, feature, err))
				continue
			}
			c.Baselines[feature] = b
		}
		for dim, features := range cf.Overrides {
			d, ok := analysis.LookupDimension(dim)
			if !ok {
				errs = append(errs, fmt.Errorf("%s: unknown dimension %q", name, dim))
				continue
			}
			if c.Overrides == nil {
				c.Overrides = make(map[string]analysis.Table)
			}
			table := make(analysis.Table, len(features))
			for feature, bf := range features {
				b, err := bf.resolve()
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %s: %s: %w", name, d.Slug, feature, err))
					continue
				}
				table[feature] = b
			}
			c.Overrides[d.Slug] = table
		}
		seed[name] = c
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return seed, nil
}

// LoadSeedFile reads a seed document from path.
func LoadSeedFile(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	seed, err := ParseSeed(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seed, nil
}
