package analysis

import (
	"time"

	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/normals"
)

// WinterSeason is the Nov 1 through Mar 31 heating season.
var WinterSeason = normals.Window{FromMonth: 11, FromDay: 1, ToMonth: 3, ToDay: 31}

// SeasonPoint is one calendar day of the season-to-date accumulation.
// CumulativeForecast carries the running total forward through days the
// forecast does not cover; HasForecast marks the days it does.
type SeasonPoint struct {
	Month int
	Day   int

	NormalHDD        float64
	CumulativeNormal float64

	HasForecast        bool
	ForecastHDD        float64
	CumulativeForecast float64
}

// CumulativeSeason accumulates gas-weighted forecast degree days against
// the climatological normal across the season window. Only days the
// climatology covers appear; a Feb 29 forecast folds onto Feb 28.
func CumulativeSeason(records []domain.DailyRecord, table *normals.Table, w normals.Window) []SeasonPoint {
	type calDay struct{ month, day int }

	norms := make(map[calDay]normals.Normal)
	for _, n := range table.Days() {
		norms[calDay{n.Month, n.Day}] = n
	}

	forecast := make(map[calDay]float64)
	for _, rec := range records {
		k := calDay{int(rec.Date.Month()), rec.Date.Day()}
		if k.month == 2 && k.day == 29 {
			k.day = 28
		}
		forecast[k] = rec.TDDGW
	}

	start := time.Date(2024, time.Month(w.FromMonth), w.FromDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.Month(w.ToMonth), w.ToDay, 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		end = end.AddDate(1, 0, 0)
	}

	var points []SeasonPoint
	var cumNormal, cumForecast float64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		k := calDay{int(d.Month()), d.Day()}
		n, ok := norms[k]
		if !ok {
			continue
		}

		cumNormal += n.HDD
		p := SeasonPoint{
			Month:            k.month,
			Day:              k.day,
			NormalHDD:        n.HDD,
			CumulativeNormal: cumNormal,
		}
		if v, ok := forecast[k]; ok {
			p.HasForecast = true
			p.ForecastHDD = v
			cumForecast += v
		}
		p.CumulativeForecast = cumForecast
		points = append(points, p)
	}
	return points
}
