package cohort

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ahump20/lone-star-legends-championship-sub006/internal/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	seed := DefaultSeed()
	require.Contains(t, seed, DefaultKey)
	require.Contains(t, seed, "mlb.closer")

	for key, c := range seed {
		assert.Equal(t, key, c.Key)
		for name, b := range c.Baselines {
			assert.Greater(t, b.Std, 0.0, "%s/%s", key, name)
		}
		for slug := range c.Overrides {
			_, ok := analysis.LookupDimension(slug)
			assert.True(t, ok, "%s override for unknown dimension %s", key, slug)
		}
	}
	assert.Equal(t, seed.Keys()[0], DefaultKey)
}

func TestCohortTableFor(t *testing.T) {
	c := DefaultSeed()["mlb.closer"]

	aura := c.TableFor(analysis.ChampionAura.Get())
	assert.Equal(t, analysis.Baseline{Mean: 0.10, Std: 0.15}, aura["highLeverage_WPA"])
	assert.Equal(t, c.Baselines["hrv_rmssd"], aura["hrv_rmssd"])

	clutch := c.TableFor(analysis.ClutchGene.Get())
	assert.Equal(t, analysis.Baseline{Mean: 0.08, Std: 0.12}, clutch["highLeverage_WPA"])

	// The override must not leak into the shared table.
	aura["hrv_rmssd"] = analysis.Baseline{Mean: 1, Std: 1}
	assert.Equal(t, analysis.Baseline{Mean: 52, Std: 14}, c.Baselines["hrv_rmssd"])
}

func TestSeedMerge(t *testing.T) {
	base := Seed{"a.b": {Key: "a.b", Description: "base"}, "c.d": {Key: "c.d"}}
	over := Seed{"a.b": {Key: "a.b", Description: "override"}}

	merged := base.Merge(over)
	assert.Equal(t, "override", merged["a.b"].Description)
	assert.Contains(t, merged, "c.d")
	assert.Equal(t, "base", base["a.b"].Description)
}

const seedYAML = `
cohorts:
  default:
    baselines:
      hrv_rmssd: {mean: 50, std: 15}
  MLB.Closer:
    description: relievers
    baselines:
      highLeverage_WPA: {mean: 0.08, std: 0.12}
      approach_tempo:
        samples: [0.9, 1.0, 1.1, 1.2]
    overrides:
      Champion Aura:
        highLeverage_WPA: {mean: 0.1, std: 0.15}
`

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, seed, 2)

	closer := seed["mlb.closer"]
	assert.Equal(t, "mlb.closer", closer.Key)
	assert.Equal(t, "relievers", closer.Description)
	assert.Equal(t, analysis.Baseline{Mean: 0.08, Std: 0.12}, closer.Baselines["highLeverage_WPA"])

	tempo := closer.Baselines["approach_tempo"]
	assert.InDelta(t, 1.05, tempo.Mean, 1e-9)
	assert.InDelta(t, 0.129099, tempo.Std, 1e-6)

	require.Contains(t, closer.Overrides, "champion_aura")
	assert.Equal(t, 0.1, closer.Overrides["champion_aura"]["highLeverage_WPA"].Mean)
}

func TestParseSeedErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "malformed key",
			doc:  "cohorts:\n  closer:\n    baselines: {}\n",
			want: []string{"malformed cohort key"},
		},
		{
			name: "missing std",
			doc:  "cohorts:\n  mlb.closer:\n    baselines:\n      x: {mean: 1}\n",
			want: []string{"mlb.closer: x: mean and std are required"},
		},
		{
			name: "non-positive std",
			doc:  "cohorts:\n  mlb.closer:\n    baselines:\n      x: {mean: 1, std: 0}\n",
			want: []string{"std must be positive"},
		},
		{
			name: "single sample",
			doc:  "cohorts:\n  mlb.closer:\n    baselines:\n      x: {samples: [1]}\n",
			want: []string{"at least two samples"},
		},
		{
			name: "constant samples",
			doc:  "cohorts:\n  mlb.closer:\n    baselines:\n      x: {samples: [2, 2, 2]}\n",
			want: []string{"zero variance"},
		},
		{
			name: "samples with mean",
			doc:  "cohorts:\n  mlb.closer:\n    baselines:\n      x: {mean: 1, samples: [1, 2]}\n",
			want: []string{"cannot be combined"},
		},
		{
			name: "unknown dimension",
			doc:  "cohorts:\n  mlb.closer:\n    overrides:\n      swagger: {}\n",
			want: []string{`unknown dimension "swagger"`},
		},
		{
			name: "unknown field",
			doc:  "cohorts:\n  mlb.closer:\n    baseline: {}\n",
			want: []string{"decode seed"},
		},
		{
			name: "reports every problem",
			doc:  "cohorts:\n  mlb.closer:\n    baselines:\n      x: {mean: 1}\n      y: {mean: 1, std: -1}\n",
			want: []string{"mlb.closer: x:", "mlb.closer: y:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed(strings.NewReader(tt.doc))
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	assert.Contains(t, seed, "mlb.closer")

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
