package config

import (
	"fmt"
	"os"

	"github.com/galehop/weather-desk/internal/domain"
	"gopkg.in/yaml.v3"
)

// Anchor is one state's contribution to the demand weighting grid.
// Lon uses the 0–360 convention. Demand is EIA residential+commercial gas
// consumption in Bcf; HDD30yr is the NOAA 1991–2020 state heating normal.
type Anchor struct {
	ID      string  `yaml:"id"`
	Lat     float64 `yaml:"lat"`
	Lon     float64 `yaml:"lon"`
	Demand  float64 `yaml:"demand_bcf"`
	HDD30yr float64 `yaml:"hdd_30yr"`
}

// Weight is the anchor's combined grid weight: gas volume × HDD sensitivity.
func (a Anchor) Weight() float64 {
	return a.Demand * a.HDD30yr
}

// Station is a weighted point location for city-series aggregation.
// Lon is west-negative as published by the acquisition layer.
type Station struct {
	Name   string  `yaml:"name"`
	Lat    float64 `yaml:"lat"`
	Lon    float64 `yaml:"lon"`
	Weight float64 `yaml:"weight"`
}

// Basin is a producing region checked for freeze-off risk.
type Basin struct {
	Name string             `yaml:"name"`
	Box  domain.BoundingBox `yaml:"box"`

	// ThresholdF is the temperature below which wellheads start freezing;
	// MMcfdPerDegree is the estimated production loss per degree below it.
	ThresholdF     float64 `yaml:"threshold_f"`
	MMcfdPerDegree float64 `yaml:"mmcfd_per_degree"`
}

// Families partitions forecast model labels between the physics cores and
// the ML emulators for the disagreement gauge.
type Families struct {
	Physics []string `yaml:"physics"`
	AI      []string `yaml:"ai"`
}

// Tables bundles the station and anchor tables the engine runs on.
type Tables struct {
	Anchors       []Anchor  `yaml:"anchors"`
	DemandCities  []Station `yaml:"demand_cities"`
	PowerBurnHubs []Station `yaml:"power_burn_hubs"`
	WindHubs      []Station `yaml:"wind_hubs"`
	FreezeBasins  []Basin   `yaml:"freeze_basins"`
	ModelFamilies Families  `yaml:"model_families"`
}

// LoadTables reads the table file at path, or returns the compiled-in
// defaults when path is empty. Sections absent from the file fall back to
// their defaults so a partial override file stays valid.
func LoadTables(path string) (Tables, error) {
	if path == "" {
		return DefaultTables(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables: %w", err)
	}

	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("parse tables: %w", err)
	}

	defaults := DefaultTables()
	if len(t.Anchors) == 0 {
		t.Anchors = defaults.Anchors
	}
	if len(t.DemandCities) == 0 {
		t.DemandCities = defaults.DemandCities
	}
	if len(t.PowerBurnHubs) == 0 {
		t.PowerBurnHubs = defaults.PowerBurnHubs
	}
	if len(t.WindHubs) == 0 {
		t.WindHubs = defaults.WindHubs
	}
	if len(t.FreezeBasins) == 0 {
		t.FreezeBasins = defaults.FreezeBasins
	}
	if len(t.ModelFamilies.Physics) == 0 && len(t.ModelFamilies.AI) == 0 {
		t.ModelFamilies = defaults.ModelFamilies
	}
	return t, nil
}

// DefaultTables returns the compiled-in anchor and station tables.
//
// Anchor weights amplify cold high-consumption states (MN, MI, NY, IL, OH,
// PA) and suppress warm or producing states (FL, CA, LA, TX) that consume
// gas without HDD sensitivity, keeping the weighted mean aligned with Henry
// Hub price drivers.
func DefaultTables() Tables {
	return Tables{
		Anchors: []Anchor{
			// Northeast: cold, dense, gas-heated.
			{ID: "ME", Lat: 45.3, Lon: 289.0, Demand: 65, HDD30yr: 7500},
			{ID: "NH", Lat: 43.7, Lon: 288.2, Demand: 50, HDD30yr: 7300},
			{ID: "VT", Lat: 44.0, Lon: 287.7, Demand: 30, HDD30yr: 8000},
			{ID: "MA", Lat: 42.4, Lon: 288.7, Demand: 210, HDD30yr: 5800},
			{ID: "RI", Lat: 41.7, Lon: 288.5, Demand: 50, HDD30yr: 5700},
			{ID: "CT", Lat: 41.6, Lon: 287.5, Demand: 110, HDD30yr: 5500},
			{ID: "NY", Lat: 42.9, Lon: 284.5, Demand: 435, HDD30yr: 5800},
			{ID: "NJ", Lat: 40.2, Lon: 285.7, Demand: 245, HDD30yr: 5000},
			{ID: "PA", Lat: 41.2, Lon: 282.2, Demand: 330, HDD30yr: 5600},
			{ID: "DE", Lat: 38.9, Lon: 284.5, Demand: 40, HDD30yr: 4500},
			// Mid-Atlantic / Appalachian.
			{ID: "MD", Lat: 39.0, Lon: 283.2, Demand: 130, HDD30yr: 4200},
			{ID: "VA", Lat: 37.8, Lon: 281.5, Demand: 165, HDD30yr: 3900},
			{ID: "WV", Lat: 38.6, Lon: 279.5, Demand: 70, HDD30yr: 5000},
			{ID: "KY", Lat: 37.4, Lon: 277.5, Demand: 115, HDD30yr: 4400},
			// Southeast: low HDD weight.
			{ID: "NC", Lat: 35.8, Lon: 280.8, Demand: 130, HDD30yr: 3400},
			{ID: "SC", Lat: 33.8, Lon: 279.2, Demand: 70, HDD30yr: 2500},
			{ID: "GA", Lat: 32.7, Lon: 276.1, Demand: 110, HDD30yr: 2600},
			{ID: "TN", Lat: 35.8, Lon: 273.5, Demand: 130, HDD30yr: 4000},
			{ID: "AL", Lat: 32.8, Lon: 273.5, Demand: 80, HDD30yr: 2700},
			{ID: "MS", Lat: 32.7, Lon: 270.2, Demand: 55, HDD30yr: 2500},
			{ID: "FL", Lat: 28.5, Lon: 278.6, Demand: 80, HDD30yr: 600},
			// Great Lakes / Midwest: very high weight.
			{ID: "OH", Lat: 40.4, Lon: 277.5, Demand: 290, HDD30yr: 5500},
			{ID: "MI", Lat: 44.3, Lon: 275.5, Demand: 325, HDD30yr: 6800},
			{ID: "IN", Lat: 40.3, Lon: 274.4, Demand: 175, HDD30yr: 5600},
			{ID: "IL", Lat: 40.6, Lon: 272.0, Demand: 345, HDD30yr: 6100},
			{ID: "WI", Lat: 44.5, Lon: 270.2, Demand: 175, HDD30yr: 7500},
			{ID: "MN", Lat: 46.4, Lon: 266.7, Demand: 180, HDD30yr: 8500},
			{ID: "IA", Lat: 42.0, Lon: 267.6, Demand: 100, HDD30yr: 6800},
			{ID: "MO", Lat: 38.4, Lon: 267.5, Demand: 190, HDD30yr: 5000},
			{ID: "AR", Lat: 34.8, Lon: 268.2, Demand: 75, HDD30yr: 3200},
			// Upper Plains.
			{ID: "ND", Lat: 47.5, Lon: 259.5, Demand: 45, HDD30yr: 9000},
			{ID: "SD", Lat: 44.5, Lon: 260.1, Demand: 35, HDD30yr: 7900},
			{ID: "NE", Lat: 41.5, Lon: 261.5, Demand: 75, HDD30yr: 6600},
			{ID: "KS", Lat: 38.7, Lon: 261.7, Demand: 85, HDD30yr: 5000},
			// South Central: large gas use, warm climate.
			{ID: "OK", Lat: 35.5, Lon: 262.7, Demand: 105, HDD30yr: 3700},
			{ID: "TX", Lat: 31.1, Lon: 260.5, Demand: 395, HDD30yr: 1800},
			{ID: "LA", Lat: 31.2, Lon: 268.6, Demand: 155, HDD30yr: 1500},
			// Mountain West.
			{ID: "MT", Lat: 47.0, Lon: 249.5, Demand: 50, HDD30yr: 7800},
			{ID: "WY", Lat: 43.0, Lon: 252.0, Demand: 45, HDD30yr: 7400},
			{ID: "CO", Lat: 39.0, Lon: 255.5, Demand: 145, HDD30yr: 6000},
			{ID: "NM", Lat: 34.5, Lon: 253.7, Demand: 80, HDD30yr: 4000},
			{ID: "AZ", Lat: 34.3, Lon: 248.6, Demand: 105, HDD30yr: 1200},
			{ID: "UT", Lat: 39.5, Lon: 248.8, Demand: 85, HDD30yr: 5800},
			{ID: "ID", Lat: 44.5, Lon: 245.8, Demand: 55, HDD30yr: 6500},
			{ID: "NV", Lat: 39.0, Lon: 243.0, Demand: 85, HDD30yr: 3000},
			// Pacific: partially disconnected from Henry Hub basis.
			{ID: "WA", Lat: 47.5, Lon: 239.7, Demand: 80, HDD30yr: 4800},
			{ID: "OR", Lat: 44.0, Lon: 237.5, Demand: 55, HDD30yr: 4500},
			{ID: "CA", Lat: 37.0, Lon: 240.0, Demand: 280, HDD30yr: 2000},
		},
		DemandCities: []Station{
			// Northeast: pipeline constraints, highest HDD sensitivity.
			{Name: "Boston", Lat: 42.36, Lon: -71.06, Weight: 4.0},
			{Name: "New York", Lat: 40.71, Lon: -74.01, Weight: 6.0},
			{Name: "Philadelphia", Lat: 39.95, Lon: -75.16, Weight: 3.0},
			{Name: "Pittsburgh", Lat: 40.44, Lon: -79.99, Weight: 2.0},
			// Great Lakes / Midwest.
			{Name: "Detroit", Lat: 42.33, Lon: -83.05, Weight: 3.0},
			{Name: "Cleveland", Lat: 41.50, Lon: -81.69, Weight: 2.0},
			{Name: "Chicago", Lat: 41.85, Lon: -87.65, Weight: 5.0},
			{Name: "Milwaukee", Lat: 43.04, Lon: -87.91, Weight: 1.5},
			{Name: "Minneapolis", Lat: 44.98, Lon: -93.27, Weight: 2.5},
			{Name: "Columbus", Lat: 39.96, Lon: -82.99, Weight: 1.5},
			{Name: "Indianapolis", Lat: 39.77, Lon: -86.16, Weight: 1.5},
			// Mid-Atlantic / Appalachian.
			{Name: "Baltimore", Lat: 39.29, Lon: -76.61, Weight: 1.5},
			// Southeast interior.
			{Name: "Charlotte", Lat: 35.23, Lon: -80.84, Weight: 1.0},
			{Name: "Atlanta", Lat: 33.75, Lon: -84.39, Weight: 1.0},
			// South Central.
			{Name: "Dallas", Lat: 32.78, Lon: -96.80, Weight: 1.0},
			{Name: "Kansas City", Lat: 39.09, Lon: -94.58, Weight: 0.8},
			{Name: "St Louis", Lat: 38.63, Lon: -90.20, Weight: 0.8},
		},
		PowerBurnHubs: []Station{
			// ERCOT, the driver of summer gas volatility.
			{Name: "Dallas", Lat: 32.78, Lon: -96.80, Weight: 25.0},
			{Name: "Houston", Lat: 29.76, Lon: -95.36, Weight: 18.0},
			// SERC: prolonged heat, high gas reliance.
			{Name: "Atlanta", Lat: 33.75, Lon: -84.39, Weight: 12.0},
			{Name: "Charlotte", Lat: 35.23, Lon: -80.84, Weight: 8.0},
			// PJM.
			{Name: "Philadelphia", Lat: 39.95, Lon: -75.16, Weight: 10.0},
			{Name: "New York", Lat: 40.71, Lon: -74.01, Weight: 8.0},
			// MISO.
			{Name: "Chicago", Lat: 41.85, Lon: -87.65, Weight: 12.0},
			// CAISO: offset by solar penetration.
			{Name: "Los Angeles", Lat: 34.05, Lon: -118.24, Weight: 7.0},
		},
		WindHubs: []Station{
			{Name: "Sweetwater", Lat: 32.47, Lon: -100.40, Weight: 5.0},
			{Name: "Amarillo", Lat: 35.22, Lon: -101.83, Weight: 3.0},
			{Name: "Corpus Christi", Lat: 27.80, Lon: -97.39, Weight: 2.0},
			{Name: "Dodge City", Lat: 37.75, Lon: -100.01, Weight: 3.0},
			{Name: "Des Moines", Lat: 41.58, Lon: -93.62, Weight: 2.0},
		},
		FreezeBasins: []Basin{
			// Permian infrastructure freezes easily; Bakken handles -20F.
			{
				Name:           "Permian",
				Box:            domain.BoundingBox{LatMin: 30.0, LatMax: 33.0, LonMin: 254.0, LonMax: 258.0},
				ThresholdF:     28.0,
				MMcfdPerDegree: 120,
			},
			{
				Name:           "Anadarko",
				Box:            domain.BoundingBox{LatMin: 34.0, LatMax: 37.0, LonMin: 258.0, LonMax: 262.0},
				ThresholdF:     25.0,
				MMcfdPerDegree: 80,
			},
			{
				Name:           "Appalachia",
				Box:            domain.BoundingBox{LatMin: 38.0, LatMax: 42.0, LonMin: 278.0, LonMax: 282.0},
				ThresholdF:     15.0,
				MMcfdPerDegree: 50,
			},
			{
				Name:           "Bakken",
				Box:            domain.BoundingBox{LatMin: 47.0, LatMax: 49.0, LonMin: 255.0, LonMax: 258.0},
				ThresholdF:     -5.0,
				MMcfdPerDegree: 30,
			},
		},
		ModelFamilies: Families{
			Physics: []string{"ECMWF_HRES", "GFS_HRES", "NAM", "ICON"},
			AI:      []string{"AIFS", "GRAPHCAST", "PANGUWEATHER"},
		},
	}
}
