package weightgrid

import "sort"

// ResampleTo bilinearly interpolates the weight grid onto foreign axes.
// Target points outside the grid get weight 0, and interpolated values are
// clamped at 0, so the result stays a valid (unnormalized) weight field.
// The target axes must be ascending.
func (g *Grid) ResampleTo(lats, lons []float64) [][]float64 {
	out := make([][]float64, len(lats))

	type coord struct {
		idx  int
		frac float64
		ok   bool
	}

	lonCoords := make([]coord, len(lons))
	for j, lon := range lons {
		idx, frac, ok := locate(g.Lons, lon)
		lonCoords[j] = coord{idx, frac, ok}
	}

	for i, lat := range lats {
		row := make([]float64, len(lons))
		li, lf, lok := locate(g.Lats, lat)
		if lok {
			for j := range lons {
				lc := lonCoords[j]
				if !lc.ok {
					continue
				}
				v00 := g.Values[li][lc.idx]
				v01 := g.Values[li][lc.idx+1]
				v10 := g.Values[li+1][lc.idx]
				v11 := g.Values[li+1][lc.idx+1]

				top := v00 + (v01-v00)*lc.frac
				bottom := v10 + (v11-v10)*lc.frac
				v := top + (bottom-top)*lf
				if v < 0 {
					v = 0
				}
				row[j] = v
			}
		}
		out[i] = row
	}
	return out
}

// locate finds the cell [axis[i], axis[i+1]] containing v and the fractional
// position of v inside it. ok is false when v lies outside the axis.
func locate(axis []float64, v float64) (int, float64, bool) {
	if len(axis) < 2 || v < axis[0] || v > axis[len(axis)-1] {
		return 0, 0, false
	}
	i := sort.SearchFloat64s(axis, v)
	if i > 0 && (i == len(axis) || axis[i] != v) {
		i--
	}
	if i == len(axis)-1 {
		i--
	}
	span := axis[i+1] - axis[i]
	if span <= 0 {
		return i, 0, false
	}
	return i, (v - axis[i]) / span, true
}
