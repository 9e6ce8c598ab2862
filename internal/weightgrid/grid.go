// Package weightgrid builds and applies the demand-weighted temperature grid.
//
// Each anchor (a state centroid carrying gas demand × HDD sensitivity) is
// spread over a regular CONUS lat/lon grid with a 2-D Gaussian kernel, and
// the result is normalized to sum to 1 so that a weighted temperature mean
// is a plain dot product. The grid is built once, persisted alongside a
// JSON sidecar describing its geometry, and resampled onto model grids at
// aggregation time.
package weightgrid

import (
	"errors"
	"fmt"
	"math"

	"github.com/galehop/weather-desk/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// ErrNoAnchors indicates an empty anchor table, a configuration error.
var ErrNoAnchors = errors.New("no anchors configured")

// Spec defines the grid geometry and the Gaussian spread of anchor weights.
type Spec struct {
	Region     domain.BoundingBox
	Resolution float64

	// Kernel widths in degrees, roughly 250-300 km.
	SigmaLat float64
	SigmaLon float64
}

// Anchor is one weighted point spread over the grid. Lon is 0-360.
type Anchor struct {
	Lat    float64
	Lon    float64
	Weight float64
}

// Grid is a normalized weight field over a regular lat/lon grid.
// Values is lat-major: Values[i][j] is the weight at (Lats[i], Lons[j]).
// Once built a Grid is never mutated.
type Grid struct {
	Lats   []float64
	Lons   []float64
	Values [][]float64
}

// Axis builds a regular coordinate axis from lo to hi inclusive.
func Axis(lo, hi, res float64) []float64 {
	n := int(math.Round((hi-lo)/res)) + 1
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = lo + float64(i)*res
	}
	return axis
}

// Build spreads every anchor's weight across the grid and normalizes the
// total to 1. Anchors with non-positive weight are ignored.
func Build(spec Spec, anchors []Anchor) (*Grid, error) {
	if len(anchors) == 0 {
		return nil, ErrNoAnchors
	}
	if !spec.Region.Valid() || spec.Resolution <= 0 {
		return nil, fmt.Errorf("degenerate grid region %+v at resolution %g", spec.Region, spec.Resolution)
	}
	if spec.SigmaLat <= 0 || spec.SigmaLon <= 0 {
		return nil, fmt.Errorf("non-positive kernel sigma (%g, %g)", spec.SigmaLat, spec.SigmaLon)
	}

	lats := Axis(spec.Region.LatMin, spec.Region.LatMax, spec.Resolution)
	lons := Axis(spec.Region.LonMin, spec.Region.LonMax, spec.Resolution)

	values := make([][]float64, len(lats))
	for i := range values {
		values[i] = make([]float64, len(lons))
	}

	twoSigLat2 := 2 * spec.SigmaLat * spec.SigmaLat
	twoSigLon2 := 2 * spec.SigmaLon * spec.SigmaLon

	for _, a := range anchors {
		if a.Weight <= 0 {
			continue
		}
		aLon := domain.NormalizeLon(a.Lon)
		for i, lat := range lats {
			dLat := lat - a.Lat
			latTerm := dLat * dLat / twoSigLat2
			row := values[i]
			for j, lon := range lons {
				dLon := lon - aLon
				row[j] += a.Weight * math.Exp(-latTerm-dLon*dLon/twoSigLon2)
			}
		}
	}

	total := 0.0
	for i := range values {
		total += floats.Sum(values[i])
	}
	if total <= 0 {
		return nil, errors.New("grid total weight is zero")
	}
	for i := range values {
		floats.Scale(1/total, values[i])
	}

	return &Grid{Lats: lats, Lons: lons, Values: values}, nil
}

// Sum returns the total weight, 1 within float tolerance for a built grid.
func (g *Grid) Sum() float64 {
	total := 0.0
	for i := range g.Values {
		total += floats.Sum(g.Values[i])
	}
	return total
}

// Shape returns (nLats, nLons).
func (g *Grid) Shape() (int, int) {
	return len(g.Lats), len(g.Lons)
}

// Peak returns the cell with the highest weight.
func (g *Grid) Peak() (lat, lon, weight float64) {
	for i := range g.Values {
		for j, w := range g.Values[i] {
			if w > weight {
				lat, lon, weight = g.Lats[i], g.Lons[j], w
			}
		}
	}
	return lat, lon, weight
}

// TopCells returns the n highest-weight cells in descending order.
func (g *Grid) TopCells(n int) []Cell {
	cells := make([]Cell, 0, n)
	for i := range g.Values {
		for j, w := range g.Values[i] {
			cells = insertCell(cells, Cell{Lat: g.Lats[i], Lon: g.Lons[j], Weight: w}, n)
		}
	}
	return cells
}

// Cell is one grid point with its weight.
type Cell struct {
	Lat    float64
	Lon    float64
	Weight float64
}

func insertCell(cells []Cell, c Cell, limit int) []Cell {
	pos := len(cells)
	for pos > 0 && cells[pos-1].Weight < c.Weight {
		pos--
	}
	if pos >= limit {
		return cells
	}
	if len(cells) < limit {
		cells = append(cells, Cell{})
	}
	copy(cells[pos+1:], cells[pos:])
	cells[pos] = c
	return cells
}
