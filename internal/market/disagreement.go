// Package market turns the forecast ledger into desk signals: the
// physics-vs-AI model split, power burn and wind generation proxies,
// producing-basin freeze-off risk, and the blended composite score.
package market

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/runstore"
)

// Families partitions model labels into the physics and AI camps, as the
// config tables define them. Labels outside both camps are ignored.
type Families struct {
	Physics []string
	AI      []string
}

// Family spread of 5 gas-weighted degree days pegs the volatility gauge.
const volSaturationDD = 5.0

// DisagreementDay is one forecast date's split between the two model
// families. Spread and Volatility are zero unless both families reported.
type DisagreementDay struct {
	Date time.Time

	PhysicsMean float64
	AIMean      float64
	HasPhysics  bool
	HasAI       bool

	// Spread is AI minus physics in gas-weighted degree days.
	Spread    float64
	AbsSpread float64

	// Volatility scales the absolute spread to a 0-100 gauge.
	Volatility float64
}

// Disagreement computes per-date family means over each model's latest
// value for that date. Dates before from are dropped; a zero from keeps
// everything.
func Disagreement(store *runstore.Store, fams Families, from time.Time) []DisagreementDay {
	type dayModel struct{ day, model string }

	// Later runs overwrite earlier ones per (date, model); Records is
	// sorted with run ids ascending inside each model.
	latest := make(map[dayModel]float64)
	dates := make(map[string]time.Time)
	for _, rec := range store.Records() {
		if !from.IsZero() && rec.Date.Before(from) {
			continue
		}
		latest[dayModel{rec.Day(), rec.Model}] = rec.TDDGW
		dates[rec.Day()] = rec.Date
	}

	days := make([]string, 0, len(dates))
	for d := range dates {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]DisagreementDay, 0, len(days))
	for _, day := range days {
		collect := func(models []string) []float64 {
			var vals []float64
			for _, m := range models {
				if v, ok := latest[dayModel{day, m}]; ok {
					vals = append(vals, v)
				}
			}
			return vals
		}

		physics := collect(fams.Physics)
		ai := collect(fams.AI)
		if len(physics) == 0 && len(ai) == 0 {
			continue
		}

		d := DisagreementDay{Date: dates[day]}
		if len(physics) > 0 {
			d.HasPhysics = true
			d.PhysicsMean = stat.Mean(physics, nil)
		}
		if len(ai) > 0 {
			d.HasAI = true
			d.AIMean = stat.Mean(ai, nil)
		}
		if d.HasPhysics && d.HasAI {
			d.Spread = d.AIMean - d.PhysicsMean
			d.AbsSpread = math.Abs(d.Spread)
			vol := d.AbsSpread / volSaturationDD * 100
			if vol > 100 {
				vol = 100
			}
			d.Volatility = domain.Round1(vol)
		}
		out = append(out, d)
	}
	return out
}
