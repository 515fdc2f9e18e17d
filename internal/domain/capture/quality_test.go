package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveQuality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  QualityParams
	}{
		{"low", QualityParams{CRF: 28, Preset: "ultrafast"}},
		{"medium", QualityParams{CRF: 23, Preset: "medium"}},
		{"high", QualityParams{CRF: 18, Preset: "slow"}},
		{"lossless", QualityParams{CRF: 0, Preset: "medium"}},
		{"High", QualityParams{CRF: 18, Preset: "slow"}},
		{" LOSSLESS ", QualityParams{CRF: 0, Preset: "medium"}},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResolveQuality(tt.label))
		})
	}
}

func TestResolveQualityFallsBackToMedium(t *testing.T) {
	t.Parallel()

	medium := ResolveQuality("Medium")
	for _, label := range []string{"unknown-label", "", "ultra", "💥", "23"} {
		assert.Equal(t, medium, ResolveQuality(label), "label %q", label)
	}
	assert.Equal(t, medium, QualityLevel("bogus").Params())
}

func TestQualityLevelKnown(t *testing.T) {
	t.Parallel()

	for _, q := range QualityLevels() {
		assert.True(t, q.Known(), string(q))
	}
	assert.True(t, QualityLevel("HIGH").Known())
	assert.False(t, QualityLevel("extreme").Known())
}
