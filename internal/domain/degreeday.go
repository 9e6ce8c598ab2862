package domain

import "math"

// DefaultBaseTempF is the standard degree-day base temperature.
const DefaultBaseTempF = 65.0

// HDD returns heating degree days for a daily mean temperature.
func HDD(meanTempF, baseF float64) float64 {
	return math.Max(baseF-meanTempF, 0)
}

// CDD returns cooling degree days for a daily mean temperature.
func CDD(meanTempF, baseF float64) float64 {
	return math.Max(meanTempF-baseF, 0)
}

// TDD is the ledger's degree-day column: the heating figure for the day.
func TDD(meanTempF, baseF float64) float64 {
	return HDD(meanTempF, baseF)
}

// Round1 rounds to one decimal, the ledger storage precision.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to two decimals, used for composite scores.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
