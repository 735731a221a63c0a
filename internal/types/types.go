// Package types holds the HTTP and CLI wire shapes and converts them into
// engine requests.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
)

// DateLayout is the short form accepted for asOf.
const DateLayout = "2006-01-02"

// MaxFeatures bounds a single request.
const MaxFeatures = 500

// FeatureInput is one observation as sent by clients. Optional numeric fields
// are pointers so that an explicit zero is distinguishable from absence.
type FeatureInput struct {
	Name        string   `json:"name" yaml:"name" binding:"required,max=128"`
	Value       *float64 `json:"value" yaml:"value" binding:"required"`
	Source      string   `json:"source" yaml:"source" binding:"required,oneof=pbp wearable cv social manual"`
	Quality     *float64 `json:"quality,omitempty" yaml:"quality,omitempty" binding:"omitempty,min=0,max=1"`
	Leverage    *float64 `json:"leverage,omitempty" yaml:"leverage,omitempty" binding:"omitempty,min=0,max=1"`
	RecencyDays *float64 `json:"recency_days,omitempty" yaml:"recency_days,omitempty" binding:"omitempty,min=0"`
}

// ScoreRequest represents the request structure for the score endpoint
type ScoreRequest struct {
	AthleteID string         `json:"athleteId" yaml:"athleteId" binding:"required,max=128"`
	Cohort    string         `json:"cohort" yaml:"cohort" binding:"max=64"`
	AsOf      string         `json:"asOf,omitempty" yaml:"asOf,omitempty" binding:"omitempty,asof"`
	Features  []FeatureInput `json:"features" yaml:"features" binding:"max=500,dive"`
}

// ParseAsOf accepts RFC3339 or YYYY-MM-DD. Empty means now.
func ParseAsOf(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("asOf %q is neither RFC3339 nor %s", s, DateLayout)
}

// ToRequest converts a validated request into the engine input.
func (r *ScoreRequest) ToRequest(now time.Time) (analysis.Request, error) {
	asOf, err := ParseAsOf(r.AsOf, now)
	if err != nil {
		return analysis.Request{}, err
	}

	features := make([]analysis.FeatureObservation, 0, len(r.Features))
	for _, f := range r.Features {
		obs := analysis.FeatureObservation{
			Name:        strings.TrimSpace(f.Name),
			Source:      analysis.Source(strings.ToLower(f.Source)),
			Quality:     analysis.DefaultQuality,
			Leverage:    analysis.DefaultLeverage,
			RecencyDays: analysis.DefaultRecencyDays,
		}
		if f.Value != nil {
			obs.Value = *f.Value
		}
		if f.Quality != nil {
			obs.Quality = *f.Quality
		}
		if f.Leverage != nil {
			obs.Leverage = *f.Leverage
		}
		if f.RecencyDays != nil {
			obs.RecencyDays = *f.RecencyDays
		}
		features = append(features, obs)
	}

	return analysis.Request{
		AthleteID: r.AthleteID,
		Cohort:    r.Cohort,
		AsOf:      asOf,
		Features:  features,
	}, nil
}

// DimensionsResponse lists the trait registry.
type DimensionsResponse struct {
	Version    string               `json:"version"`
	Dimensions []analysis.Dimension `json:"dimensions"`
}

// CohortsResponse lists the known cohort keys.
type CohortsResponse struct {
	Default string   `json:"default"`
	Cohorts []string `json:"cohorts"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}
