package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHDD(t *testing.T) {
	tests := []struct {
		name     string
		meanTemp float64
		expected float64
	}{
		{"cold day", 50.0, 15.0},
		{"at base", 65.0, 0.0},
		{"warm day clamps to zero", 75.0, 0.0},
		{"deep cold", -10.0, 75.0},
		{"fractional", 64.3, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, HDD(tt.meanTemp, DefaultBaseTempF), 1e-9)
		})
	}
}

func TestCDD(t *testing.T) {
	tests := []struct {
		name     string
		meanTemp float64
		expected float64
	}{
		{"hot day", 75.0, 10.0},
		{"at base", 65.0, 0.0},
		{"cold day clamps to zero", 50.0, 0.0},
		{"heat wave", 101.5, 36.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CDD(tt.meanTemp, DefaultBaseTempF), 1e-9)
		})
	}
}

func TestDegreeDaysNeverNegative(t *testing.T) {
	for temp := -40.0; temp <= 120.0; temp += 0.5 {
		assert.GreaterOrEqual(t, HDD(temp, DefaultBaseTempF), 0.0)
		assert.GreaterOrEqual(t, CDD(temp, DefaultBaseTempF), 0.0)
	}
}

func TestTDDMatchesHDD(t *testing.T) {
	for _, temp := range []float64{-5, 30, 65, 80} {
		assert.Equal(t, HDD(temp, DefaultBaseTempF), TDD(temp, DefaultBaseTempF))
	}
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 12.3, Round1(12.34))
	assert.Equal(t, 12.4, Round1(12.35))
	assert.Equal(t, -0.5, Round1(-0.46))
	assert.Equal(t, 0.12, Round2(0.1249))
	assert.Equal(t, 0.13, Round2(0.125))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(200.0, -1, 1))
	assert.Equal(t, -1.0, Clamp(-3.2, -1, 1))
	assert.Equal(t, 0.4, Clamp(0.4, -1, 1))
}
