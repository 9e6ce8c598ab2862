// Package analysis compares ledger rows to climatological normals and
// tracks how successive model runs revise the forecast.
package analysis

import (
	"sort"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/normals"
)

// Signal labels for run summaries.
const (
	SignalBullish = "BULLISH"
	SignalBearish = "BEARISH"
	SignalNeutral = "NEUTRAL"
)

// Comparator joins ledger rows to climatological normals. The zero value is
// unusable; construct it from the engine tunables.
type Comparator struct {
	BaseTempF    float64
	SummerMonths []time.Month

	// Threshold is the vs-normal band edge for the run signal.
	Threshold float64

	// MinDays flags run summaries with fewer forecast days as Short.
	MinDays int
}

// AnomalyRecord is one ledger row joined to its calendar-day normal. When
// the climatology has no row for the day, HasNormal is false and the
// anomaly fields are zero; the forecast side is always populated.
type AnomalyRecord struct {
	domain.DailyRecord

	ForecastCDD float64

	HasNormal    bool
	NormalHDD    float64
	NormalCDD    float64
	NormalHDDGW  float64
	HDDAnomaly   float64
	CDDAnomaly   float64
	HDDAnomalyGW float64

	// Dominant is the CDD anomaly in summer months, the HDD anomaly
	// otherwise.
	Dominant float64
}

// RunSummary aggregates one model run against normals. Forecast averages
// cover every day of the run; normal-side averages cover only days with a
// climatology row.
type RunSummary struct {
	Model string
	RunID string

	ForecastHDDAvg   float64
	NormalHDDAvg     float64
	ForecastCDDAvg   float64
	NormalCDDAvg     float64
	ForecastHDDAvgGW float64
	NormalHDDAvgGW   float64

	Days           int
	DaysWithNormal int

	VsNormalHDD   float64
	VsNormalCDD   float64
	VsNormalHDDGW float64

	// Signal derives from the simple HDD baseline.
	Signal string

	// Short marks runs below the minimum day count; they are excluded
	// from the desk signal.
	Short bool
}

// Compare joins every record to its normal and summarizes each (model,
// run). Summaries come back sorted by (model, run_id).
func (c Comparator) Compare(records []domain.DailyRecord, table *normals.Table) ([]AnomalyRecord, []RunSummary) {
	rows := make([]AnomalyRecord, 0, len(records))
	for _, rec := range records {
		row := AnomalyRecord{
			DailyRecord: rec,
			ForecastCDD: domain.CDD(rec.MeanTempF, c.BaseTempF),
		}
		if n, err := table.LookupDate(rec.Date); err == nil {
			row.HasNormal = true
			row.NormalHDD = n.HDD
			row.NormalCDD = n.CDD
			row.NormalHDDGW = n.HDDGW
			row.HDDAnomaly = rec.TDD - n.HDD
			row.CDDAnomaly = row.ForecastCDD - n.CDD
			row.HDDAnomalyGW = rec.TDDGW - n.HDDGW
			row.Dominant = row.HDDAnomaly
			if c.isSummer(rec.Date.Month()) {
				row.Dominant = row.CDDAnomaly
			}
		}
		rows = append(rows, row)
	}
	return rows, c.summarize(rows)
}

func (c Comparator) summarize(rows []AnomalyRecord) []RunSummary {
	type key struct{ model, runID string }
	groups := make(map[key][]AnomalyRecord)
	for _, row := range rows {
		k := key{row.Model, row.RunID}
		groups[k] = append(groups[k], row)
	}

	order := make([]key, 0, len(groups))
	for k := range groups {
		order = append(order, k)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].model != order[j].model {
			return order[i].model < order[j].model
		}
		return order[i].runID < order[j].runID
	})

	summaries := make([]RunSummary, 0, len(order))
	for _, k := range order {
		g := groups[k]
		s := RunSummary{Model: k.model, RunID: k.runID, Days: len(g)}

		var fHDD, fCDD, fHDDGW, nHDD, nCDD, nHDDGW float64
		for _, row := range g {
			fHDD += row.TDD
			fCDD += row.ForecastCDD
			fHDDGW += row.TDDGW
			if row.HasNormal {
				s.DaysWithNormal++
				nHDD += row.NormalHDD
				nCDD += row.NormalCDD
				nHDDGW += row.NormalHDDGW
			}
		}

		days := float64(s.Days)
		s.ForecastHDDAvg = fHDD / days
		s.ForecastCDDAvg = fCDD / days
		s.ForecastHDDAvgGW = fHDDGW / days

		if s.DaysWithNormal > 0 {
			withNormal := float64(s.DaysWithNormal)
			s.NormalHDDAvg = nHDD / withNormal
			s.NormalCDDAvg = nCDD / withNormal
			s.NormalHDDAvgGW = nHDDGW / withNormal
			s.VsNormalHDD = s.ForecastHDDAvg - s.NormalHDDAvg
			s.VsNormalCDD = s.ForecastCDDAvg - s.NormalCDDAvg
			s.VsNormalHDDGW = s.ForecastHDDAvgGW - s.NormalHDDAvgGW
		}

		s.Signal = c.signalFor(s)
		s.Short = s.Days < c.MinDays
		summaries = append(summaries, s)
	}
	return summaries
}

// signalFor bands the simple HDD deviation. A run with no normals at all
// has nothing to deviate from and stays neutral.
func (c Comparator) signalFor(s RunSummary) string {
	if s.DaysWithNormal == 0 {
		return SignalNeutral
	}
	switch {
	case s.VsNormalHDD > c.Threshold:
		return SignalBullish
	case s.VsNormalHDD < -c.Threshold:
		return SignalBearish
	default:
		return SignalNeutral
	}
}

func (c Comparator) isSummer(m time.Month) bool {
	for _, s := range c.SummerMonths {
		if s == m {
			return true
		}
	}
	return false
}
