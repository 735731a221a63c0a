package analysis

import (
	"math"
	"sort"
)

// TopContributors ranks features by |z| * reliability and keeps the first k.
func TopContributors(features []standardized, k int) []Contributor {
	out := make([]Contributor, 0, len(features))
	for _, f := range features {
		sign := "+"
		if f.Z < 0 {
			sign = "-"
		}
		out = append(out, Contributor{
			Name:        f.Name,
			Contrib:     math.Abs(f.Z) * f.Source.Reliability(),
			Sign:        sign,
			Source:      f.Source,
			RecencyDays: f.RecencyDays,
		})
	}
	// Stable so equal contributions keep input order after the name tiebreak.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Contrib != out[j].Contrib {
			return out[i].Contrib > out[j].Contrib
		}
		return out[i].Name < out[j].Name
	})
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	for i := range out {
		out[i].Contrib = round(out[i].Contrib, 3)
	}
	return out
}

// Summarize reports effective N, median recency and per-source coverage.
// Every canonical source is present in the coverage map.
func (p Params) Summarize(features []FeatureObservation, nEff float64) EvidenceSummary {
	counts := make(map[Source]int, len(Sources))
	ages := make([]float64, len(features))
	for i, f := range features {
		counts[f.Source]++
		ages[i] = f.RecencyDays
	}
	coverage := make(map[Source]float64, len(Sources))
	for _, s := range Sources {
		coverage[s] = round(math.Min(1, float64(counts[s])/p.CoverageSaturation), 3)
	}
	return EvidenceSummary{
		NEff:              round(nEff, 2),
		MedianRecencyDays: round(median(ages), 1),
		CoverageBySource:  coverage,
	}
}
