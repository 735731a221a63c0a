package analysis

// Params holds the calibration constants of the engine. The conflict divisor
// and the freshness half-lives are empirical choices and need re-validation
// against outcome data before they are trusted.
type Params struct {
	// Squash: 100 / (1 + exp(-(Beta*z + Bias)))
	Beta float64
	Bias float64

	// ShrinkK is the decay rate of the shrinkage weight in n_eff.
	ShrinkK float64
	// ShrinkNoteThreshold is the shrinkage weight above which
	// notes.shrinkage_applied is reported.
	ShrinkNoteThreshold float64

	SampleGamma       float64
	AgreementDelta    float64
	ConflictDivisor   float64
	ConflictThreshold float64

	InSeasonHalfLifeDays  float64
	OffSeasonHalfLifeDays float64

	TopK               int
	CoverageSaturation float64
	StdEpsilon         float64
}

// DefaultParams returns the reference calibration.
func DefaultParams() Params {
	return Params{
		Beta:                  0.9,
		Bias:                  0,
		ShrinkK:               0.35,
		ShrinkNoteThreshold:   0.01,
		SampleGamma:           0.3,
		AgreementDelta:        0.5,
		ConflictDivisor:       2,
		ConflictThreshold:     0.2,
		InSeasonHalfLifeDays:  28,
		OffSeasonHalfLifeDays: 90,
		TopK:                  5,
		CoverageSaturation:    3,
		StdEpsilon:            1e-6,
	}
}

// withDefaults fills zero-valued fields from DefaultParams so callers can
// override a subset.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Beta <= 0 {
		p.Beta = d.Beta
	}
	if p.ShrinkK <= 0 {
		p.ShrinkK = d.ShrinkK
	}
	if p.ShrinkNoteThreshold <= 0 {
		p.ShrinkNoteThreshold = d.ShrinkNoteThreshold
	}
	if p.SampleGamma <= 0 {
		p.SampleGamma = d.SampleGamma
	}
	if p.AgreementDelta <= 0 {
		p.AgreementDelta = d.AgreementDelta
	}
	if p.ConflictDivisor <= 0 {
		p.ConflictDivisor = d.ConflictDivisor
	}
	if p.ConflictThreshold <= 0 {
		p.ConflictThreshold = d.ConflictThreshold
	}
	if p.InSeasonHalfLifeDays <= 0 {
		p.InSeasonHalfLifeDays = d.InSeasonHalfLifeDays
	}
	if p.OffSeasonHalfLifeDays <= 0 {
		p.OffSeasonHalfLifeDays = d.OffSeasonHalfLifeDays
	}
	if p.TopK <= 0 {
		p.TopK = d.TopK
	}
	if p.CoverageSaturation <= 0 {
		p.CoverageSaturation = d.CoverageSaturation
	}
	if p.StdEpsilon <= 0 {
		p.StdEpsilon = d.StdEpsilon
	}
	return p
}
