package market

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/field"
)

// Basin is a producing region with the temperature below which wellheads
// start freezing off and the production lost per degree below it, as the
// config tables define them.
type Basin struct {
	Name       string
	Box        domain.BoundingBox
	ThresholdF float64

	// LossRate is MMcf/d shut in per degree below the threshold.
	LossRate float64
}

// BasinRisk is one basin's coldest forecast cell and the implied supply
// loss. HasData is false when no field step covered the basin.
type BasinRisk struct {
	HasData bool
	MinF    float64

	// Loss in whole MMcf/d.
	Loss float64
}

// FreezeOffDay aggregates basin risk for one forecast date.
type FreezeOffDay struct {
	Date      time.Time
	Basins    map[string]BasinRisk
	TotalLoss float64
}

// FreezeOffs scans forecast fields for sub-threshold basin minimums. The
// daily minimum runs across every field step valid that day; steps that
// miss a basin are skipped, not fatal.
func FreezeOffs(fields []*field.Field, basins []Basin) []FreezeOffDay {
	byDay := make(map[string][]*field.Field)
	dates := make(map[string]time.Time)
	for _, f := range fields {
		d := f.ValidDate
		k := d.Format(domain.DateLayout)
		byDay[k] = append(byDay[k], f)
		dates[k] = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}

	days := make([]string, 0, len(byDay))
	for k := range byDay {
		days = append(days, k)
	}
	sort.Strings(days)

	out := make([]FreezeOffDay, 0, len(days))
	for _, k := range days {
		day := FreezeOffDay{Date: dates[k], Basins: make(map[string]BasinRisk, len(basins))}
		for _, b := range basins {
			risk := basinRisk(byDay[k], b)
			day.Basins[b.Name] = risk
			day.TotalLoss += risk.Loss
		}
		out = append(out, day)
	}
	return out
}

func basinRisk(steps []*field.Field, b Basin) BasinRisk {
	var risk BasinRisk
	for _, f := range steps {
		cropped, err := f.Crop(b.Box)
		if errors.Is(err, field.ErrEmptyCrop) {
			continue
		}
		min, err := cropped.Fahrenheit().Min()
		if err != nil {
			continue
		}
		if !risk.HasData || min < risk.MinF {
			risk.MinF = min
		}
		risk.HasData = true
	}
	if !risk.HasData {
		return risk
	}

	risk.MinF = domain.Round1(risk.MinF)
	if risk.MinF < b.ThresholdF {
		risk.Loss = math.Round((b.ThresholdF - risk.MinF) * b.LossRate)
	}
	return risk
}
