package domain

import "math"

// BoundingBox is a lat/lon region in the 0–360 longitude convention.
type BoundingBox struct {
	LatMin float64 `json:"lat_min" yaml:"lat_min"`
	LatMax float64 `json:"lat_max" yaml:"lat_max"`
	LonMin float64 `json:"lon_min" yaml:"lon_min"`
	LonMax float64 `json:"lon_max" yaml:"lon_max"`
}

// Contains reports whether the point lies inside the box. The longitude is
// normalized to 0–360 before the check.
func (b BoundingBox) Contains(lat, lon float64) bool {
	lon = NormalizeLon(lon)
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// Valid reports whether the box spans a positive area.
func (b BoundingBox) Valid() bool {
	return b.LatMax > b.LatMin && b.LonMax > b.LonMin
}

// NormalizeLon maps any longitude into [0, 360).
func NormalizeLon(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}
