package analysis

import (
	"math"
	"sort"
)

// Baseline is the cohort reference for one feature.
type Baseline struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
}

// DefaultBaseline is used for features the cohort knows nothing about.
var DefaultBaseline = Baseline{Mean: 0, Std: 1}

// Table maps feature names to their cohort baseline.
type Table map[string]Baseline

// Lookup returns the baseline for a feature, falling back to DefaultBaseline.
func (t Table) Lookup(name string) Baseline {
	if b, ok := t[name]; ok {
		return b
	}
	return DefaultBaseline
}

// standardized is a feature paired with its cohort z-score.
type standardized struct {
	FeatureObservation
	Z float64
}

// MaxAbsZ bounds every standardized value so sums over features stay finite.
const MaxAbsZ = 1e6

// ZScore computes (value - mean) / std, guarding std with eps. The result is
// clamped to [-MaxAbsZ, MaxAbsZ]; an undefined quotient is 0.
func ZScore(value float64, b Baseline, eps float64) float64 {
	std := b.Std
	if !(std > eps) {
		std = eps
	}
	z := (value - b.Mean) / std
	if math.IsNaN(z) {
		return 0
	}
	return clip(z, -MaxAbsZ, MaxAbsZ)
}

func standardize(features []FeatureObservation, table Table, eps float64) []standardized {
	out := make([]standardized, len(features))
	for i, f := range features {
		out[i] = standardized{FeatureObservation: f, Z: ZScore(f.Value, table.Lookup(f.Name), eps)}
	}
	return out
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return 0.5 * (cp[mid-1] + cp[mid])
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteOr(x, def float64) float64 {
	if isFinite(x) {
		return x
	}
	return def
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
