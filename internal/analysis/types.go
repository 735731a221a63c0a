package analysis

import (
	"errors"
	"fmt"
	"time"
)

// Source identifies where a feature observation came from.
type Source string

const (
	SourcePBP      Source = "pbp"
	SourceWearable Source = "wearable"
	SourceCV       Source = "cv"
	SourceSocial   Source = "social"
	SourceManual   Source = "manual"
)

// Sources lists the canonical sources in reporting order.
var Sources = [...]Source{SourcePBP, SourceWearable, SourceCV, SourceSocial, SourceManual}

// Reliability returns the fixed per-source reliability constant.
// Unknown sources are unreliable.
func (s Source) Reliability() float64 {
	switch s {
	case SourcePBP:
		return 0.9
	case SourceWearable:
		return 0.8
	case SourceCV:
		return 0.7
	case SourceManual:
		return 0.6
	case SourceSocial:
		return 0.4
	}
	return 0
}

// Valid reports whether s is one of the canonical sources.
func (s Source) Valid() bool {
	return s.Reliability() > 0
}

const (
	DefaultQuality     = 0.5
	DefaultLeverage    = 0.0
	DefaultRecencyDays = 0.0
)

// ErrInvalidFeature is returned when an observation is structurally unusable.
var ErrInvalidFeature = errors.New("invalid feature observation")

// FeatureObservation is a single raw signal for an athlete.
type FeatureObservation struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Source      Source  `json:"source"`
	Quality     float64 `json:"quality"`
	Leverage    float64 `json:"leverage"`
	RecencyDays float64 `json:"recency_days"`
}

// Request is the engine input for one athlete.
type Request struct {
	AthleteID string
	Cohort    string
	AsOf      time.Time
	Features  []FeatureObservation
}

// Contributor is one entry of the attribution list.
type Contributor struct {
	Name        string  `json:"name"`
	Contrib     float64 `json:"contrib"`
	Sign        string  `json:"sign"`
	Source      Source  `json:"source"`
	RecencyDays float64 `json:"recency_days"`
}

// EvidenceSummary reports how much evidence backs a score.
type EvidenceSummary struct {
	NEff              float64            `json:"n_eff"`
	MedianRecencyDays float64            `json:"median_recency_days"`
	CoverageBySource  map[Source]float64 `json:"coverage_by_source"`
}

// Notes carries boolean flags about how a score was produced.
type Notes struct {
	ShrinkageApplied  bool `json:"shrinkage_applied"`
	ConflictsDetected bool `json:"conflicts_detected"`
}

// ScoreRecord is the result for one dimension.
type ScoreRecord struct {
	Name            string          `json:"name"`
	Score           float64         `json:"score"`
	Confidence      float64         `json:"confidence"`
	Percentile      float64         `json:"percentile"`
	TopKFeatures    []Contributor   `json:"top_k_features"`
	EvidenceSummary EvidenceSummary `json:"evidence_summary"`
	Notes           Notes           `json:"notes"`
}

// Response is the engine output for one athlete.
type Response struct {
	AthleteID string        `json:"athleteId"`
	AsOf      time.Time     `json:"asOf"`
	Cohort    string        `json:"cohort"`
	Version   string        `json:"version"`
	Scores    []ScoreRecord `json:"scores"`
}

// sanitize validates an observation and clamps its bounded fields.
func sanitize(f FeatureObservation) (FeatureObservation, error) {
	if f.Name == "" {
		return f, fmt.Errorf("%w: empty name", ErrInvalidFeature)
	}
	if !f.Source.Valid() {
		return f, fmt.Errorf("%w: %s: unknown source %q", ErrInvalidFeature, f.Name, f.Source)
	}
	if !isFinite(f.Value) {
		return f, fmt.Errorf("%w: %s: non-numeric value", ErrInvalidFeature, f.Name)
	}
	f.Quality = clip(finiteOr(f.Quality, DefaultQuality), 0, 1)
	f.Leverage = clip(finiteOr(f.Leverage, DefaultLeverage), 0, 1)
	f.RecencyDays = finiteOr(f.RecencyDays, DefaultRecencyDays)
	if f.RecencyDays < 0 {
		f.RecencyDays = 0
	}
	return f, nil
}
