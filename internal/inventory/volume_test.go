package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeductVolume(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		remaining, used float64
		want            float64
	}{
		{"partial", 10, 4, 6},
		{"exact", 4, 4, 0},
		{"overdraw floors at zero", 3, 7.5, 0},
		{"nothing used", 5, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, deductVolume(tt.remaining, tt.used), 1e-9)
		})
	}
}

func TestApplyVolumeEdit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                string
		oldTotal, newTotal  float64
		remaining, expected float64
	}{
		{"increase shifts remaining", 10, 15, 3, 8},
		{"decrease shifts remaining", 10, 8, 6, 4},
		{"decrease below zero clamps", 10, 2, 3, 0},
		{"unchanged total keeps remaining", 10, 10, 3, 3},
		{"never above total", 10, 12, 10, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := applyVolumeEdit(tt.oldTotal, tt.newTotal, tt.remaining)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, tt.newTotal)
		})
	}
}

func TestJoinAndSplitTargets(t *testing.T) {
	t.Parallel()

	joined := joinTargets([]string{" HSV-1", "", "hsv-1 ", "CMV"})
	assert.Equal(t, "HSV-1, hsv-1, CMV", joined, "membership is case-sensitive")
	assert.Equal(t, []string{"HSV-1", "hsv-1", "CMV"}, SplitTargets(joined))
	assert.Nil(t, SplitTargets("  "))
}

func TestParseGender(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"m", "M", "Male", "MÄNNLICH", "männlich"} {
		g, ok := parseGender(in)
		assert.True(t, ok, in)
		assert.Equal(t, "male", string(g), in)
	}
	for _, in := range []string{"f", "Female", "Weiblich"} {
		g, ok := parseGender(in)
		assert.True(t, ok, in)
		assert.Equal(t, "female", string(g), in)
	}
	_, ok := parseGender("x")
	assert.False(t, ok)
}
