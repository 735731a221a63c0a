package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestNormalCDF_MatchesReference(t *testing.T) {
	for z := -5.0; z <= 5.0001; z += 0.25 {
		assert.InDelta(t, distuv.UnitNormal.CDF(z), NormalCDF(z), 2e-7, "z=%.2f", z)
	}
}

func TestNormalCDF_Anchors(t *testing.T) {
	assert.InDelta(t, 0.5, NormalCDF(0), 1e-8)
	assert.InDelta(t, 0.8413, NormalCDF(1), 1e-4)
	assert.InDelta(t, 0.0228, NormalCDF(-2), 1e-4)
	assert.Equal(t, 0.5, NormalCDF(math.NaN()))
	assert.Equal(t, 1.0, NormalCDF(MaxAbsZ))
}

func TestNormalCDF_Monotone(t *testing.T) {
	prev := NormalCDF(-6)
	for z := -5.95; z <= 6; z += 0.05 {
		cur := NormalCDF(z)
		assert.GreaterOrEqual(t, cur, prev, "z=%.2f", z)
		assert.GreaterOrEqual(t, cur, 0.0)
		assert.LessOrEqual(t, cur, 1.0)
		prev = cur
	}
}

func TestNormalCDF_DoesNotAllocate(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		_ = NormalCDF(0.7)
	})
	assert.Equal(t, 0.0, allocs)
}
