package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

func newTestAnalyzer(src BaselineSource) *Analyzer {
	return NewAnalyzer(src, WithClock(func() time.Time { return fixedNow }))
}

func TestAnalyzer_EmptyFeatures(t *testing.T) {
	a := newTestAnalyzer(nil)

	resp, err := a.Score(context.Background(), Request{AthleteID: "a-1", Cohort: "mlb.closer"})
	require.NoError(t, err)
	require.Len(t, resp.Scores, 8)

	assert.Equal(t, "a-1", resp.AthleteID)
	assert.Equal(t, fixedNow, resp.AsOf)
	assert.Equal(t, Version, resp.Version)

	for _, rec := range resp.Scores {
		assert.Equal(t, 50.0, rec.Score, rec.Name)
		assert.Equal(t, 0.0, rec.Confidence, rec.Name)
		assert.Equal(t, 0.5, rec.Percentile, rec.Name)
		assert.NotNil(t, rec.TopKFeatures)
		assert.Empty(t, rec.TopKFeatures)
		assert.Equal(t, 0.0, rec.EvidenceSummary.NEff)
		assert.True(t, rec.Notes.ShrinkageApplied)
		assert.False(t, rec.Notes.ConflictsDetected)
	}

	body, err := json.Marshal(resp.Scores[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"top_k_features":[]`)
}

func TestAnalyzer_RegistryOrder(t *testing.T) {
	a := newTestAnalyzer(nil)
	resp, err := a.Score(context.Background(), Request{
		AthleteID: "a-2",
		Features:  []FeatureObservation{{Name: "x", Value: 1, Source: SourcePBP, Quality: 1}},
	})
	require.NoError(t, err)

	dims := Dimensions()
	require.Len(t, resp.Scores, len(dims))
	for i, d := range dims {
		assert.Equal(t, d.Name, resp.Scores[i].Name)
	}
}

func TestAnalyzer_Deterministic(t *testing.T) {
	a := newTestAnalyzer(StaticBaselines{"wpa": {Mean: 0.08, Std: 0.12}})
	req := Request{
		AthleteID: "a-3",
		Cohort:    "mlb.closer",
		AsOf:      fixedNow,
		Features: []FeatureObservation{
			{Name: "wpa", Value: 0.22, Source: SourcePBP, Quality: 0.95, Leverage: 0.8, RecencyDays: 6},
			{Name: "tempo", Value: -0.3, Source: SourceCV, Quality: 0.7, RecencyDays: 2},
			{Name: "sentiment", Value: 1.1, Source: SourceSocial, Quality: 0.4, RecencyDays: 1},
		},
	}

	first, err := a.Score(context.Background(), req)
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		resp, err := a.Score(context.Background(), req)
		require.NoError(t, err)
		got, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}

func TestAnalyzer_ConflictLowersConfidence(t *testing.T) {
	a := newTestAnalyzer(nil)
	feature := func(name string, v float64) FeatureObservation {
		return FeatureObservation{Name: name, Value: v, Source: SourcePBP, Quality: 0.9, RecencyDays: 3}
	}

	conflicting, err := a.Score(context.Background(), Request{
		Features: []FeatureObservation{feature("a", -2), feature("b", 2)},
	})
	require.NoError(t, err)
	agreeing, err := a.Score(context.Background(), Request{
		Features: []FeatureObservation{feature("a", 2), feature("b", 2.1)},
	})
	require.NoError(t, err)

	for i := range conflicting.Scores {
		c, g := conflicting.Scores[i], agreeing.Scores[i]
		assert.True(t, c.Notes.ConflictsDetected, c.Name)
		assert.False(t, g.Notes.ConflictsDetected, g.Name)
		assert.Less(t, c.Confidence, g.Confidence, c.Name)
	}
}

func TestAnalyzer_Bounds(t *testing.T) {
	a := newTestAnalyzer(nil)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		n := rng.Intn(8)
		features := make([]FeatureObservation, n)
		for j := range features {
			features[j] = FeatureObservation{
				Name:        string(rune('a' + j)),
				Value:       rng.NormFloat64() * 10,
				Source:      Sources[rng.Intn(len(Sources))],
				Quality:     rng.Float64()*1.4 - 0.2,
				Leverage:    rng.Float64()*1.4 - 0.2,
				RecencyDays: rng.Float64()*400 - 10,
			}
		}
		resp, err := a.Score(context.Background(), Request{Features: features})
		require.NoError(t, err)
		for _, rec := range resp.Scores {
			assert.GreaterOrEqual(t, rec.Score, 0.0)
			assert.LessOrEqual(t, rec.Score, 100.0)
			assert.GreaterOrEqual(t, rec.Confidence, 0.0)
			assert.LessOrEqual(t, rec.Confidence, 1.0)
			assert.GreaterOrEqual(t, rec.Percentile, 0.0)
			assert.LessOrEqual(t, rec.Percentile, 1.0)
			assert.LessOrEqual(t, len(rec.TopKFeatures), 5)
			assert.Len(t, rec.EvidenceSummary.CoverageBySource, len(Sources))
		}
	}

	extreme := newTestAnalyzer(StaticBaselines{"wpa": {Mean: 0.08, Std: 0.12}})
	cases := map[string][]FeatureObservation{
		"single overflowing feature": {
			{Name: "wpa", Value: 1e308, Source: SourcePBP},
		},
		"opposing overflowing features": {
			{Name: "wpa", Value: 1e308, Source: SourcePBP},
			{Name: "wpa", Value: -1e308, Source: SourcePBP},
		},
		"max float against unknown baseline": {
			{Name: "hrv_rmssd", Value: math.MaxFloat64, Source: SourceWearable},
			{Name: "wpa", Value: -math.MaxFloat64, Source: SourceCV},
		},
	}
	for name, features := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := extreme.Score(context.Background(), Request{Cohort: "mlb.closer", Features: features})
			require.NoError(t, err)
			for _, rec := range resp.Scores {
				assert.False(t, math.IsNaN(rec.Score), rec.Name)
				assert.GreaterOrEqual(t, rec.Score, 0.0, rec.Name)
				assert.LessOrEqual(t, rec.Score, 100.0, rec.Name)
				assert.GreaterOrEqual(t, rec.Percentile, 0.0, rec.Name)
				assert.LessOrEqual(t, rec.Percentile, 1.0, rec.Name)
				for _, c := range rec.TopKFeatures {
					assert.False(t, math.IsInf(c.Contrib, 0) || math.IsNaN(c.Contrib), c.Name)
				}
			}

			_, err = json.Marshal(resp)
			require.NoError(t, err)

			traces, err := extreme.Explain(context.Background(), Request{Cohort: "mlb.closer", Features: features})
			require.NoError(t, err)
			_, err = json.Marshal(traces)
			require.NoError(t, err)
		})
	}
}

func TestAnalyzer_InvalidFeature(t *testing.T) {
	a := newTestAnalyzer(nil)
	_, err := a.Score(context.Background(), Request{
		Features: []FeatureObservation{
			{Name: "ok", Value: 1, Source: SourcePBP},
			{Name: "bad", Value: 1, Source: "astrology"},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFeature))
}

type panickingBaselines struct{}

func (panickingBaselines) Canonical(c string) string { return c }

func (panickingBaselines) Table(_ context.Context, _ string, d Dimension) Table {
	if d.ID == FlowState {
		panic("corrupt table")
	}
	return nil
}

func TestAnalyzer_PanicBecomesScoringError(t *testing.T) {
	a := newTestAnalyzer(panickingBaselines{})
	_, err := a.Score(context.Background(), Request{
		Features: []FeatureObservation{{Name: "x", Value: 1, Source: SourceCV}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScoring))
	assert.Contains(t, err.Error(), "Flow State")
}

func TestAnalyzer_AsOfDrivesHalfLife(t *testing.T) {
	a := newTestAnalyzer(nil)
	features := []FeatureObservation{{Name: "x", Value: 1, Source: SourcePBP, Quality: 1, RecencyDays: 28}}

	inSeason, err := a.Explain(context.Background(), Request{
		Cohort: "mlb.closer", AsOf: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Features: features,
	})
	require.NoError(t, err)
	offSeason, err := a.Explain(context.Background(), Request{
		Cohort: "mlb.closer", AsOf: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), Features: features,
	})
	require.NoError(t, err)

	assert.Equal(t, 28.0, inSeason[0].HalfLife)
	assert.InDelta(t, 0.5, inSeason[0].Factors.Freshness, 1e-12)
	assert.Equal(t, 90.0, offSeason[0].HalfLife)
	assert.Greater(t, offSeason[0].Factors.Freshness, inSeason[0].Factors.Freshness)
}

func TestAnalyzer_LeverageOnlyMovesSensitiveTraits(t *testing.T) {
	a := newTestAnalyzer(nil)
	base := []FeatureObservation{
		{Name: "a", Value: 2, Source: SourcePBP, Quality: 1},
		{Name: "b", Value: -1, Source: SourceCV, Quality: 1},
	}
	pressured := append([]FeatureObservation(nil), base...)
	pressured[0].Leverage = 1

	calm, err := a.Explain(context.Background(), Request{Features: base})
	require.NoError(t, err)
	hot, err := a.Explain(context.Background(), Request{Features: pressured})
	require.NoError(t, err)

	for i, d := range Dimensions() {
		if d.LeverageSensitive {
			assert.Greater(t, hot[i].Z, calm[i].Z, d.Name)
		} else {
			assert.Equal(t, calm[i].Z, hot[i].Z, d.Name)
		}
	}
}

func TestWithParams_KeepsDefaultsForZeroFields(t *testing.T) {
	a := NewAnalyzer(nil, WithParams(Params{Beta: 1.2}))
	p := a.Params()
	assert.Equal(t, 1.2, p.Beta)
	assert.Equal(t, 0.35, p.ShrinkK)
	assert.Equal(t, 5, p.TopK)
}
