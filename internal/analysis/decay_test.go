package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecayWeight(t *testing.T) {
	tests := []struct {
		name     string
		ageDays  float64
		halfLife float64
		expected float64
	}{
		{"zero days", 0, 28, 1.0},
		{"one half life", 28, 28, 0.5},
		{"two half lives", 180, 90, 0.25},
		{"negative age treated as fresh", -5, 28, 1.0},
		{"invalid half life", 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DecayWeight(tt.ageDays, tt.halfLife), 1e-12)
		})
	}
}

func TestSeasonWindow_Contains(t *testing.T) {
	mlb := SeasonWindow{Start: time.March, End: time.October}
	assert.True(t, mlb.Contains(time.March))
	assert.True(t, mlb.Contains(time.July))
	assert.True(t, mlb.Contains(time.October))
	assert.False(t, mlb.Contains(time.November))
	assert.False(t, mlb.Contains(time.February))

	nfl := SeasonWindow{Start: time.September, End: time.February}
	assert.True(t, nfl.Contains(time.December))
	assert.True(t, nfl.Contains(time.January))
	assert.True(t, nfl.Contains(time.February))
	assert.False(t, nfl.Contains(time.June))
}

func TestHalfLife(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name     string
		cohort   string
		asOf     time.Time
		expected float64
	}{
		{"mlb in season", "mlb.closer", time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), 28},
		{"mlb off season", "mlb.closer", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), 90},
		{"nba wraps year end", "nba.guard", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), 28},
		{"nba summer", "nba.guard", time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC), 90},
		{"unknown sport uses default window", "cricket.bowler", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), 28},
		{"empty cohort", "", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.HalfLife(tt.cohort, tt.asOf))
		})
	}
}
