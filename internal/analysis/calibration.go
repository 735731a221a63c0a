package analysis

// Anchor is a fixed point of the display scale with its semantic label.
type Anchor struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
	Z     float64 `json:"z"`
}

// ReliabilityMetrics are tracked outside the engine and reported for
// information only; scoring never reads them.
type ReliabilityMetrics struct {
	TestRetestR      float64 `json:"test_retest_r"`
	CalibrationSlope float64 `json:"calibration_slope"`
	SampleSize       int     `json:"sample_size"`
}

// CalibrationInfo describes the fixed calibration of the display scale.
type CalibrationInfo struct {
	Version     string             `json:"version"`
	Beta        float64            `json:"beta"`
	Bias        float64            `json:"bias"`
	Anchors     []Anchor           `json:"anchors"`
	Reliability map[Source]float64 `json:"source_reliability"`
	Metrics     ReliabilityMetrics `json:"metrics"`
	Params      CalibrationParams  `json:"params"`
}

// CalibrationParams is the subset of Params worth publishing.
type CalibrationParams struct {
	ShrinkK               float64 `json:"shrink_k"`
	SampleGamma           float64 `json:"sample_gamma"`
	AgreementDelta        float64 `json:"agreement_delta"`
	ConflictDivisor       float64 `json:"conflict_divisor"`
	ConflictThreshold     float64 `json:"conflict_threshold"`
	InSeasonHalfLifeDays  float64 `json:"in_season_half_life_days"`
	OffSeasonHalfLifeDays float64 `json:"off_season_half_life_days"`
	TopK                  int     `json:"top_k"`
}

var anchorLabels = []struct {
	score float64
	label string
}{
	{50, "Cohort median"},
	{60, "Above average"},
	{70, "Strong"},
	{85, "Elite"},
	{95, "Generational"},
}

// InverseSquash returns the aggregate z that squashes to score.
func (p Params) InverseSquash(score float64) float64 {
	score = clip(score, 1e-9, 100-1e-9)
	return (logit(score/100) - p.Bias) / p.Beta
}

// Calibration reports the anchors and constants of p.
func (p Params) Calibration(metrics ReliabilityMetrics) CalibrationInfo {
	anchors := make([]Anchor, len(anchorLabels))
	for i, a := range anchorLabels {
		anchors[i] = Anchor{Score: a.score, Label: a.label, Z: round(p.InverseSquash(a.score), 3)}
	}
	rel := make(map[Source]float64, len(Sources))
	for _, s := range Sources {
		rel[s] = s.Reliability()
	}
	return CalibrationInfo{
		Version:     Version,
		Beta:        p.Beta,
		Bias:        p.Bias,
		Anchors:     anchors,
		Reliability: rel,
		Metrics:     metrics,
		Params: CalibrationParams{
			ShrinkK:               p.ShrinkK,
			SampleGamma:           p.SampleGamma,
			AgreementDelta:        p.AgreementDelta,
			ConflictDivisor:       p.ConflictDivisor,
			ConflictThreshold:     p.ConflictThreshold,
			InSeasonHalfLifeDays:  p.InSeasonHalfLifeDays,
			OffSeasonHalfLifeDays: p.OffSeasonHalfLifeDays,
			TopK:                  p.TopK,
		},
	}
}
