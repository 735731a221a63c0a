package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConflict(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name     string
		zs       []float64
		expected float64
	}{
		{"no features", nil, 0},
		{"single feature", []float64{3}, 0},
		{"agreeing pair", []float64{2, 2.1}, 0.05},
		{"opposing strong signals saturate", []float64{-2, 2}, 1},
		{"three features", []float64{0, 1, 2}, (1 + 2 + 1) / 3.0 / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, p.Conflict(tt.zs), 1e-9)
		})
	}
}

func TestConflict_CustomDivisor(t *testing.T) {
	p := DefaultParams()
	p.ConflictDivisor = 4
	assert.InDelta(t, 0.5, p.Conflict([]float64{-1, 1}), 1e-12)
}

func TestConfidence_Empty(t *testing.T) {
	p := DefaultParams()
	f := p.Confidence(nil, 0, 0, 28)
	assert.Equal(t, 0.0, f.Value())
}

func TestConfidence_Factors(t *testing.T) {
	p := DefaultParams()
	features := []FeatureObservation{
		{Name: "a", Source: SourcePBP, Quality: 0.8, RecencyDays: 28},
		{Name: "b", Source: SourceCV, Quality: 0.6, RecencyDays: 28},
	}
	nEff := EffectiveN(features)
	f := p.Confidence(features, nEff, 0.4, 28)

	assert.InDelta(t, 1-math.Exp(-0.3*nEff), f.Sample, 1e-12)
	assert.InDelta(t, 0.7, f.Quality, 1e-12)
	assert.InDelta(t, 0.8, f.Agreement, 1e-12)
	assert.InDelta(t, 0.5, f.Freshness, 1e-12)
	assert.InDelta(t, f.Sample*0.7*0.8*0.5, f.Value(), 1e-12)
}

func TestConfidence_Bounded(t *testing.T) {
	p := DefaultParams()
	sets := [][]FeatureObservation{
		{{Name: "a", Source: SourceSocial, Quality: 0}},
		{{Name: "a", Source: SourcePBP, Quality: 1}},
		{
			{Name: "a", Source: SourcePBP, Quality: 1},
			{Name: "b", Source: SourceWearable, Quality: 1},
			{Name: "c", Source: SourceCV, Quality: 1},
			{Name: "d", Source: SourceSocial, Quality: 1},
			{Name: "e", Source: SourceManual, Quality: 1},
		},
	}
	for _, set := range sets {
		for _, conflict := range []float64{0, 0.5, 1} {
			v := p.Confidence(set, EffectiveN(set), conflict, 90).Value()
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}
