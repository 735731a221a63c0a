package analysis

import (
	"math"
	"strings"
	"time"
)

// DecayWeight computes exp(-ln2 * ageDays / halfLifeDays).
func DecayWeight(ageDays, halfLifeDays float64) float64 {
	if halfLifeDays <= 0 {
		return 0
	}
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-math.Ln2 / halfLifeDays * ageDays)
}

// SeasonWindow is an inclusive calendar-month range. Windows with
// Start > End wrap the year end (e.g. Oct..Jun).
type SeasonWindow struct {
	Start time.Month
	End   time.Month
}

// Contains reports whether m falls within the window.
func (w SeasonWindow) Contains(m time.Month) bool {
	if w.Start <= w.End {
		return m >= w.Start && m <= w.End
	}
	return m >= w.Start || m <= w.End
}

// DefaultSeason applies to sports without a registered window.
var DefaultSeason = SeasonWindow{Start: time.March, End: time.October}

var seasons = map[string]SeasonWindow{
	"mlb":     {Start: time.March, End: time.October},
	"nba":     {Start: time.October, End: time.June},
	"wnba":    {Start: time.May, End: time.October},
	"nhl":     {Start: time.October, End: time.June},
	"nfl":     {Start: time.September, End: time.February},
	"ncaa-fb": {Start: time.August, End: time.January},
	"mls":     {Start: time.February, End: time.December},
}

// SeasonFor returns the in-season window for the sport prefix of a cohort key.
func SeasonFor(cohort string) SeasonWindow {
	sport, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(cohort)), ".")
	if w, ok := seasons[sport]; ok {
		return w
	}
	return DefaultSeason
}

// HalfLife picks the freshness half-life for the cohort's sport at asOf.
func (p Params) HalfLife(cohort string, asOf time.Time) float64 {
	if SeasonFor(cohort).Contains(asOf.UTC().Month()) {
		return p.InSeasonHalfLifeDays
	}
	return p.OffSeasonHalfLifeDays
}
