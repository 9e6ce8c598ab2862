package market

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
)

// Wind generation signal labels.
const (
	WindBullish = "BULLISH (Wind Drought)"
	WindBearish = "BEARISH (High Wind)"
	WindNeutral = "NEUTRAL"
)

// Hub is one observation site and its demand weight, as the config tables
// define them.
type Hub struct {
	Name   string
	Weight float64
}

// StationDay is one site observation, already converted to the working
// unit by its loader.
type StationDay struct {
	Station string
	Date    time.Time
	Value   float64
}

// ProxyDay is one date of a weighted proxy series.
type ProxyDay struct {
	Date  time.Time
	Value float64
}

// WindDay is one date of the wind generation proxy.
type WindDay struct {
	Date    time.Time
	Anomaly float64
	Signal  string
}

// LoadTemperatures reads a station series CSV and converts values to
// Fahrenheit using the per-row unit column.
func LoadTemperatures(path string) ([]StationDay, error) {
	return loadSeries(path, domain.ToFahrenheit)
}

// LoadWindSpeeds reads a station series CSV and converts values to m/s.
// Rows carrying unit kmh or km/h are converted; anything else passes
// through.
func LoadWindSpeeds(path string) ([]StationDay, error) {
	return loadSeries(path, func(v float64, unit string) float64 {
		switch unit {
		case "kmh", "km/h":
			return domain.KmhToMS(v)
		}
		return v
	})
}

// loadSeries reads CSV columns date, station, value with an optional unit
// column. Malformed rows fail the load.
func loadSeries(path string, convert func(v float64, unit string) float64) ([]StationDay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("load series: %s is empty", path)
	}

	col := make(map[string]int, len(all[0]))
	for i, name := range all[0] {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range []string{"date", "station", "value"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("load series: %s is missing column %q", path, name)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]StationDay, 0, len(all)-1)
	for i, row := range all[1:] {
		date, err := domain.ParseDate(cell(row, "date"))
		if err != nil {
			return nil, fmt.Errorf("load series: %s line %d: %w", path, i+2, err)
		}
		station := cell(row, "station")
		if station == "" {
			return nil, fmt.Errorf("load series: %s line %d: missing station", path, i+2)
		}
		v, err := strconv.ParseFloat(cell(row, "value"), 64)
		if err != nil {
			return nil, fmt.Errorf("load series: %s line %d: bad value %q", path, i+2, cell(row, "value"))
		}
		out = append(out, StationDay{
			Station: station,
			Date:    date,
			Value:   convert(v, cell(row, "unit")),
		})
	}
	return out, nil
}

// PowerBurn converts hub temperatures to a demand-weighted cooling proxy.
// Each date averages over the hubs that reported it, reweighted to the
// reporting set.
func PowerBurn(days []StationDay, hubs []Hub, baseTempF float64) []ProxyDay {
	weights := hubWeights(hubs)

	type acc struct{ weighted, weight float64 }
	byDay := make(map[string]*acc)
	dates := make(map[string]time.Time)
	for _, d := range days {
		w, ok := weights[d.Station]
		if !ok {
			continue
		}
		k := d.Date.Format(domain.DateLayout)
		a := byDay[k]
		if a == nil {
			a = &acc{}
			byDay[k] = a
			dates[k] = d.Date
		}
		a.weighted += domain.CDD(d.Value, baseTempF) * w
		a.weight += w
	}

	out := make([]ProxyDay, 0, len(byDay))
	for k, a := range byDay {
		out = append(out, ProxyDay{Date: dates[k], Value: domain.Round2(a.weighted / a.weight)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// WindAnomaly compares weighted hub wind speeds to the typical corridor
// speed. Negative anomalies starve turbines and push gas burn up.
func WindAnomaly(days []StationDay, hubs []Hub, typicalMS float64) []WindDay {
	weights := hubWeights(hubs)

	type acc struct{ weighted, weight float64 }
	byDay := make(map[string]*acc)
	dates := make(map[string]time.Time)
	for _, d := range days {
		w, ok := weights[d.Station]
		if !ok {
			continue
		}
		k := d.Date.Format(domain.DateLayout)
		a := byDay[k]
		if a == nil {
			a = &acc{}
			byDay[k] = a
			dates[k] = d.Date
		}
		a.weighted += d.Value * w
		a.weight += w
	}

	out := make([]WindDay, 0, len(byDay))
	for k, a := range byDay {
		anom := domain.Round2(a.weighted/a.weight - typicalMS)
		out = append(out, WindDay{Date: dates[k], Anomaly: anom, Signal: windSignal(anom)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func windSignal(anomaly float64) string {
	switch {
	case anomaly < -1.5:
		return WindBullish
	case anomaly > 2.0:
		return WindBearish
	}
	return WindNeutral
}

func hubWeights(hubs []Hub) map[string]float64 {
	m := make(map[string]float64, len(hubs))
	for _, h := range hubs {
		m[h.Name] = h.Weight
	}
	return m
}
