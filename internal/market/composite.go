package market

import (
	"sort"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
)

// Market bias bands for the composite score.
const (
	BiasStrongBull = "STRONG BULL"
	BiasBullish    = "BULLISH"
	BiasStrongBear = "STRONG BEAR"
	BiasBearish    = "BEARISH"
	BiasNeutral    = "NEUTRAL"
)

// CompositeDay is the blended daily signal. Score sits in [-1, 1].
type CompositeDay struct {
	Date time.Time

	MasterTDD  float64
	Spread     float64
	Volatility float64
	PowerBurn  float64
	WindAnom   float64

	Score float64
	Bias  string
}

// Composite blends the family consensus, power burn, and wind proxies
// into one bounded daily score. Dates come from the disagreement and
// power burn series; wind joins where present. Missing inputs count as
// zero.
func Composite(days []DisagreementDay, burn []ProxyDay, wind []WindDay) []CompositeDay {
	disByDay := make(map[string]DisagreementDay, len(days))
	dates := make(map[string]time.Time)
	for _, d := range days {
		k := d.Date.Format(domain.DateLayout)
		disByDay[k] = d
		dates[k] = d.Date
	}
	burnByDay := make(map[string]float64, len(burn))
	for _, p := range burn {
		k := p.Date.Format(domain.DateLayout)
		burnByDay[k] = p.Value
		dates[k] = p.Date
	}
	windByDay := make(map[string]float64, len(wind))
	for _, w := range wind {
		windByDay[w.Date.Format(domain.DateLayout)] = w.Anomaly
	}

	keys := make([]string, 0, len(dates))
	for k := range dates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]CompositeDay, 0, len(keys))
	for _, k := range keys {
		dis := disByDay[k]
		c := CompositeDay{
			Date:       dates[k],
			MasterTDD:  masterTDD(dis),
			Spread:     dis.Spread,
			Volatility: dis.Volatility,
			PowerBurn:  burnByDay[k],
			WindAnom:   windByDay[k],
		}
		c.Score = score(c)
		c.Bias = bias(c.Score)
		out = append(out, c)
	}
	return out
}

// masterTDD is the cross-family consensus demand. One missing family
// defers to the other; neither reporting reads as zero demand.
func masterTDD(d DisagreementDay) float64 {
	switch {
	case d.HasPhysics && d.HasAI:
		return (d.PhysicsMean + d.AIMean) / 2
	case d.HasPhysics:
		return d.PhysicsMean
	case d.HasAI:
		return d.AIMean
	}
	return 0
}

// score sums the bullish pressure from demand, power burn, and wind
// drought, discounts by family volatility, and clamps to [-1, 1].
func score(c CompositeDay) float64 {
	var bull float64

	if c.MasterTDD > 25 {
		bull += (c.MasterTDD - 25) * 0.05
	} else if c.MasterTDD > 12 {
		bull += (c.MasterTDD - 12) * 0.08
	}

	if c.PowerBurn > 10 {
		bull += (c.PowerBurn - 10) * 0.1
	}

	if c.WindAnom < -1.0 {
		bull += -c.WindAnom * 0.15
	} else if c.WindAnom > 1.5 {
		bull -= c.WindAnom * 0.10
	}

	confidence := 1 - c.Volatility/100
	if confidence < 0.2 {
		confidence = 0.2
	}

	s := bull * confidence
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return domain.Round2(s)
}

func bias(score float64) string {
	switch {
	case score > 0.5:
		return BiasStrongBull
	case score > 0.1:
		return BiasBullish
	case score < -0.5:
		return BiasStrongBear
	case score < -0.1:
		return BiasBearish
	}
	return BiasNeutral
}
