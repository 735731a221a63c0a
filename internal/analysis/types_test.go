package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceReliability(t *testing.T) {
	tests := []struct {
		source   Source
		expected float64
	}{
		{SourcePBP, 0.9},
		{SourceWearable, 0.8},
		{SourceCV, 0.7},
		{SourceManual, 0.6},
		{SourceSocial, 0.4},
		{Source("rumor"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.source.Reliability())
			assert.Equal(t, tt.expected > 0, tt.source.Valid())
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    FeatureObservation
		expected FeatureObservation
		wantErr  bool
	}{
		{
			name:     "valid observation passes through",
			input:    FeatureObservation{Name: "wpa", Value: 0.2, Source: SourcePBP, Quality: 0.9, Leverage: 0.5, RecencyDays: 4},
			expected: FeatureObservation{Name: "wpa", Value: 0.2, Source: SourcePBP, Quality: 0.9, Leverage: 0.5, RecencyDays: 4},
		},
		{
			name:     "out of range fields are clamped",
			input:    FeatureObservation{Name: "wpa", Value: 1, Source: SourceCV, Quality: 1.7, Leverage: -0.2, RecencyDays: -3},
			expected: FeatureObservation{Name: "wpa", Value: 1, Source: SourceCV, Quality: 1, Leverage: 0, RecencyDays: 0},
		},
		{
			name:     "non-finite optional fields take defaults",
			input:    FeatureObservation{Name: "wpa", Value: 1, Source: SourceCV, Quality: math.NaN(), Leverage: math.Inf(1), RecencyDays: math.NaN()},
			expected: FeatureObservation{Name: "wpa", Value: 1, Source: SourceCV, Quality: DefaultQuality, Leverage: DefaultLeverage, RecencyDays: DefaultRecencyDays},
		},
		{
			name:    "empty name",
			input:   FeatureObservation{Value: 1, Source: SourcePBP},
			wantErr: true,
		},
		{
			name:    "unknown source",
			input:   FeatureObservation{Name: "x", Value: 1, Source: "scout"},
			wantErr: true,
		},
		{
			name:    "non-numeric value",
			input:   FeatureObservation{Name: "x", Value: math.NaN(), Source: SourcePBP},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFeature))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
