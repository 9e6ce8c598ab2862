package normals

import (
	"time"

	"github.com/galehop/weather-desk/internal/domain"
)

// Ten-year curve approximation until a real 10-year dataset is wired in:
// warmer recent winters shave heating demand, hotter summers add cooling.
const (
	tenYearHDDFactor = 0.95
	tenYearCDDFactor = 1.05
)

// Window is an inclusive calendar-day range. A window whose end precedes
// its start wraps across the year boundary.
type Window struct {
	FromMonth, FromDay int
	ToMonth, ToDay     int
}

// FallCrossover covers the autumn shoulder where cooling demand hands off
// to heating demand.
var FallCrossover = Window{FromMonth: 9, FromDay: 20, ToMonth: 10, ToDay: 15}

// CrossoverPoint is one calendar day of the crossover table: the modern
// 10-year degree-day curves against the 30-year base.
type CrossoverPoint struct {
	Month int
	Day   int
	HDD30 float64
	HDD10 float64
	CDD30 float64
	CDD10 float64
}

// CrossoverCurves walks the window in calendar order and emits one point
// per day that has a normal. Days without normals are absent from the
// result, never fabricated.
func (t *Table) CrossoverCurves(w Window) []CrossoverPoint {
	// Walk a leap year so Feb 29 is reachable when the table carries it.
	start := time.Date(2024, time.Month(w.FromMonth), w.FromDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.Month(w.ToMonth), w.ToDay, 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		end = end.AddDate(1, 0, 0)
	}

	var out []CrossoverPoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		n, ok := t.byDay[monthDay{int(d.Month()), d.Day()}]
		if !ok {
			continue
		}
		out = append(out, CrossoverPoint{
			Month: n.Month,
			Day:   n.Day,
			HDD30: n.HDD,
			HDD10: domain.Round1(n.HDD * tenYearHDDFactor),
			CDD30: n.CDD,
			CDD10: domain.Round1(n.CDD * tenYearCDDFactor),
		})
	}
	return out
}
