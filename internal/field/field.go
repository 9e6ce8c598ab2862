// Package field loads gridded temperature fields and reduces them to the
// scalar daily means the run ledger stores. Fields arrive from the
// acquisition layer as a raw float64 binary plus a JSON sidecar carrying the
// axes, unit, and valid date; a 1x1 field represents an already-reduced
// scalar.
package field

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/weightgrid"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyCrop indicates the region box does not intersect the field.
	// The affected time step is skipped, not the whole run.
	ErrEmptyCrop = errors.New("crop box does not intersect field")

	// ErrNoWeights indicates the resampled weight grid carries no weight
	// over the field. Callers fall back to the simple mean.
	ErrNoWeights = errors.New("no weight overlaps field")
)

// Field is a 2-D temperature slab on a rectilinear lat/lon grid.
// Values is lat-major in axis order.
type Field struct {
	Lats   []float64
	Lons   []float64
	Values [][]float64

	Unit      string
	ValidDate time.Time
	Model     string
	RunID     string
}

// Crop returns the sub-field inside box. Longitudes are normalized to 0-360
// and re-sorted ascending; descending input latitudes are flipped, so the
// result is always ascending on both axes.
func (f *Field) Crop(box domain.BoundingBox) (*Field, error) {
	if len(f.Lats) == 0 || len(f.Lons) == 0 {
		return nil, ErrEmptyCrop
	}

	lats := f.Lats
	values := f.Values
	if lats[0] > lats[len(lats)-1] {
		lats, values = flipRows(lats, values)
	}

	lons, values := normalizeColumns(f.Lons, values)

	latLo := sort.SearchFloat64s(lats, box.LatMin)
	latHi := sort.Search(len(lats), func(i int) bool { return lats[i] > box.LatMax })
	lonLo := sort.SearchFloat64s(lons, box.LonMin)
	lonHi := sort.Search(len(lons), func(i int) bool { return lons[i] > box.LonMax })

	if latLo >= latHi || lonLo >= lonHi {
		return nil, ErrEmptyCrop
	}

	out := &Field{
		Lats:      append([]float64(nil), lats[latLo:latHi]...),
		Lons:      append([]float64(nil), lons[lonLo:lonHi]...),
		Unit:      f.Unit,
		ValidDate: f.ValidDate,
		Model:     f.Model,
		RunID:     f.RunID,
	}
	out.Values = make([][]float64, latHi-latLo)
	for i := range out.Values {
		out.Values[i] = append([]float64(nil), values[latLo+i][lonLo:lonHi]...)
	}
	return out, nil
}

// Fahrenheit returns the field with values converted to Fahrenheit.
// A field already in Fahrenheit is returned unchanged.
func (f *Field) Fahrenheit() *Field {
	if f.Unit == domain.UnitFahrenheit {
		return f
	}
	out := &Field{
		Lats:      f.Lats,
		Lons:      f.Lons,
		Unit:      domain.UnitFahrenheit,
		ValidDate: f.ValidDate,
		Model:     f.Model,
		RunID:     f.RunID,
	}
	out.Values = make([][]float64, len(f.Values))
	for i := range f.Values {
		row := make([]float64, len(f.Values[i]))
		for j, v := range f.Values[i] {
			row[j] = domain.ToFahrenheit(v, f.Unit)
		}
		out.Values[i] = row
	}
	return out
}

// SimpleMean is the arithmetic mean of all cells.
func (f *Field) SimpleMean() float64 {
	flat := make([]float64, 0, len(f.Lats)*len(f.Lons))
	for i := range f.Values {
		flat = append(flat, f.Values[i]...)
	}
	return stat.Mean(flat, nil)
}

// WeightedMean reduces the field with the demand grid resampled onto the
// field axes. A nil grid degrades to the simple mean; a grid with no weight
// over the field returns ErrNoWeights so the caller can fall back.
func (f *Field) WeightedMean(g *weightgrid.Grid) (float64, error) {
	if g == nil {
		return f.SimpleMean(), nil
	}

	w := g.ResampleTo(f.Lats, f.Lons)
	var total, weighted float64
	for i := range f.Values {
		for j, v := range f.Values[i] {
			total += w[i][j]
			weighted += v * w[i][j]
		}
	}
	if total == 0 {
		return 0, ErrNoWeights
	}
	return weighted / total, nil
}

// Min returns the smallest cell value.
func (f *Field) Min() (float64, error) {
	if len(f.Values) == 0 {
		return 0, errors.New("empty field")
	}
	min := f.Values[0][0]
	for i := range f.Values {
		for _, v := range f.Values[i] {
			if v < min {
				min = v
			}
		}
	}
	return min, nil
}

// Shape returns (nLats, nLons).
func (f *Field) Shape() (int, int) {
	return len(f.Lats), len(f.Lons)
}

func flipRows(lats []float64, values [][]float64) ([]float64, [][]float64) {
	n := len(lats)
	outLats := make([]float64, n)
	outValues := make([][]float64, n)
	for i := 0; i < n; i++ {
		outLats[i] = lats[n-1-i]
		outValues[i] = values[n-1-i]
	}
	return outLats, outValues
}

// normalizeColumns maps longitudes into 0-360 and reorders columns so the
// axis is ascending. Rows are rebuilt only when the order actually changes.
func normalizeColumns(lons []float64, values [][]float64) ([]float64, [][]float64) {
	normalized := make([]float64, len(lons))
	changed := false
	for j, lon := range lons {
		normalized[j] = domain.NormalizeLon(lon)
		if normalized[j] != lon {
			changed = true
		}
	}

	sorted := sort.Float64sAreSorted(normalized)
	if !changed && sorted {
		return lons, values
	}
	if sorted {
		return normalized, values
	}

	perm := make([]int, len(lons))
	for j := range perm {
		perm[j] = j
	}
	sort.Slice(perm, func(a, b int) bool { return normalized[perm[a]] < normalized[perm[b]] })

	outLons := make([]float64, len(lons))
	for j, p := range perm {
		outLons[j] = normalized[p]
	}
	outValues := make([][]float64, len(values))
	for i := range values {
		row := make([]float64, len(lons))
		for j, p := range perm {
			row[j] = values[i][p]
		}
		outValues[i] = row
	}
	return outLons, outValues
}

// Reduce computes the simple and weighted daily means in Fahrenheit for a
// cropped field, falling back to the simple mean when the grid carries no
// weight over it. Both figures are always produced.
func Reduce(f *Field, box domain.BoundingBox, g *weightgrid.Grid) (simpleF, weightedF float64, err error) {
	cropped, err := f.Crop(box)
	if err != nil {
		return 0, 0, fmt.Errorf("reduce %s field: %w", f.Model, err)
	}
	cropped = cropped.Fahrenheit()

	simpleF = cropped.SimpleMean()
	weightedF, werr := cropped.WeightedMean(g)
	if werr != nil {
		weightedF = simpleF
	}
	return simpleF, weightedF, nil
}
