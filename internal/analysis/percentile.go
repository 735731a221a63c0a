package analysis

import "math"

// Abramowitz and Stegun 7.1.26, |error| <= 1.5e-7.
const (
	erfP  = 0.3275911
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
)

func erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1
		x = -x
	}
	t := 1 / (1 + erfP*x)
	poly := ((((erfA5*t+erfA4)*t+erfA3)*t+erfA2)*t + erfA1) * t
	return sign * (1 - poly*math.Exp(-x*x))
}

// NormalCDF is the standard normal CDF.
func NormalCDF(z float64) float64 {
	if math.IsNaN(z) {
		return 0.5
	}
	return clip(0.5*(1+erf(z/math.Sqrt2)), 0, 1)
}
