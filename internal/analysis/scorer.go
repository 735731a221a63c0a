package analysis

import "math"

// Neutral is the score of a cohort-median performer and the shrinkage prior.
const Neutral = 50.0

// Aggregate combines standardized features into one dimension z-score,
// weighting each by source reliability and, for leverage-sensitive
// dimensions, by situational pressure. Zero total weight yields 0.
func Aggregate(d Dimension, features []standardized) float64 {
	var num, den float64
	for _, f := range features {
		w := f.Source.Reliability() * d.contextMultiplier(f.Leverage)
		num += w * f.Z
		den += w
	}
	if den == 0 {
		return 0
	}
	return finiteOr(num/den, 0)
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }

// Squash maps z to (0, 100) with a fixed logistic; z=0 maps to 50.
func (p Params) Squash(z float64) float64 {
	return 100 * sigmoid(p.Beta*z+p.Bias)
}

// EffectiveN is sqrt(unique sources * total quality).
func EffectiveN(features []FeatureObservation) float64 {
	if len(features) == 0 {
		return 0
	}
	seen := make(map[Source]struct{}, len(Sources))
	var q float64
	for _, f := range features {
		seen[f.Source] = struct{}{}
		q += f.Quality
	}
	if q <= 0 {
		return 0
	}
	return math.Sqrt(float64(len(seen)) * q)
}

// ShrinkWeight is exp(-k * nEff); 1 means the score collapses to Neutral.
func (p Params) ShrinkWeight(nEff float64) float64 {
	if nEff < 0 {
		nEff = 0
	}
	return math.Exp(-p.ShrinkK * nEff)
}

// Shrink pulls raw toward Neutral by weight s in [0,1]. The result always
// lies between raw and Neutral; NaN inputs collapse to Neutral.
func Shrink(raw, s float64) float64 {
	if math.IsNaN(raw) {
		return Neutral
	}
	if math.IsNaN(s) {
		s = 1
	}
	s = clip(s, 0, 1)
	return clip((1-s)*raw+s*Neutral, 0, 100)
}
