package analysis

import "math"

// Conflict is the mean absolute pairwise z-score difference divided by the
// configured divisor, clamped to [0,1]. Fewer than two features never conflict.
func (p Params) Conflict(zs []float64) float64 {
	n := len(zs)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += math.Abs(zs[i] - zs[j])
		}
	}
	pairs := float64(n*(n-1)) / 2
	return clip(sum/pairs/p.ConflictDivisor, 0, 1)
}

// ConfidenceFactors are the four multiplicative components of confidence.
type ConfidenceFactors struct {
	Sample    float64 `json:"sample"`
	Quality   float64 `json:"quality"`
	Agreement float64 `json:"agreement"`
	Freshness float64 `json:"freshness"`
}

// Value multiplies the factors and clamps to [0,1].
func (c ConfidenceFactors) Value() float64 {
	return clip(c.Sample*c.Quality*c.Agreement*c.Freshness, 0, 1)
}

// Confidence derives the factors from the evidence. Empty evidence has a
// zero sample factor and therefore zero confidence.
func (p Params) Confidence(features []FeatureObservation, nEff, conflict, halfLifeDays float64) ConfidenceFactors {
	if len(features) == 0 {
		return ConfidenceFactors{}
	}
	var q float64
	ages := make([]float64, len(features))
	for i, f := range features {
		q += f.Quality
		ages[i] = f.RecencyDays
	}
	return ConfidenceFactors{
		Sample:    clip(1-math.Exp(-p.SampleGamma*nEff), 0, 1),
		Quality:   clip(q/float64(len(features)), 0, 1),
		Agreement: clip(1-p.AgreementDelta*conflict, 0, 1),
		Freshness: DecayWeight(median(ages), halfLifeDays),
	}
}
