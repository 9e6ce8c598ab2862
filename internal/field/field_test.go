package field

import (
	"testing"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/weightgrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeField(lats, lons []float64, fill func(lat, lon float64) float64) *Field {
	values := make([][]float64, len(lats))
	for i, lat := range lats {
		row := make([]float64, len(lons))
		for j, lon := range lons {
			row[j] = fill(lat, lon)
		}
		values[i] = row
	}
	return &Field{
		Lats:      lats,
		Lons:      lons,
		Values:    values,
		Unit:      domain.UnitFahrenheit,
		ValidDate: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
		Model:     "GFS",
		RunID:     "20260115_06",
	}
}

func conusBox() domain.BoundingBox {
	return domain.BoundingBox{LatMin: 25, LatMax: 50, LonMin: 235, LonMax: 295}
}

func TestCrop(t *testing.T) {
	t.Run("ascending axes inside box", func(t *testing.T) {
		f := makeField(
			weightgrid.Axis(20, 55, 1),
			weightgrid.Axis(230, 300, 1),
			func(lat, lon float64) float64 { return lat + lon },
		)
		cropped, err := f.Crop(conusBox())
		require.NoError(t, err)

		assert.Equal(t, 25.0, cropped.Lats[0])
		assert.Equal(t, 50.0, cropped.Lats[len(cropped.Lats)-1])
		assert.Equal(t, 235.0, cropped.Lons[0])
		assert.Equal(t, 295.0, cropped.Lons[len(cropped.Lons)-1])
		assert.Equal(t, 25.0+235.0, cropped.Values[0][0])
	})

	t.Run("descending latitudes", func(t *testing.T) {
		lats := []float64{50, 45, 40, 35, 30, 25}
		f := makeField(lats, []float64{240, 250, 260}, func(lat, lon float64) float64 { return lat })

		cropped, err := f.Crop(domain.BoundingBox{LatMin: 30, LatMax: 45, LonMin: 235, LonMax: 295})
		require.NoError(t, err)

		assert.Equal(t, []float64{30, 35, 40, 45}, cropped.Lats)
		assert.Equal(t, 30.0, cropped.Values[0][0])
		assert.Equal(t, 45.0, cropped.Values[len(cropped.Values)-1][0])
	})

	t.Run("west-negative longitudes are normalized and reordered", func(t *testing.T) {
		// -100W..-96W published as negatives, out of 0-360 order.
		f := makeField([]float64{40}, []float64{-96, -98, -100}, func(lat, lon float64) float64 { return lon })

		cropped, err := f.Crop(domain.BoundingBox{LatMin: 25, LatMax: 50, LonMin: 235, LonMax: 295})
		require.NoError(t, err)

		assert.Equal(t, []float64{260, 262, 264}, cropped.Lons)
		// Values follow their columns: 260=-100, 262=-98, 264=-96.
		assert.Equal(t, []float64{-100, -98, -96}, cropped.Values[0])
	})

	t.Run("no intersection", func(t *testing.T) {
		f := makeField([]float64{10, 11}, []float64{100, 101}, func(lat, lon float64) float64 { return 0 })
		_, err := f.Crop(conusBox())
		assert.ErrorIs(t, err, ErrEmptyCrop)
	})

	t.Run("scalar field inside box", func(t *testing.T) {
		f := makeField([]float64{40}, []float64{260}, func(lat, lon float64) float64 { return 55.5 })
		cropped, err := f.Crop(conusBox())
		require.NoError(t, err)
		assert.Equal(t, 55.5, cropped.SimpleMean())
	})

	t.Run("empty field", func(t *testing.T) {
		f := &Field{}
		_, err := f.Crop(conusBox())
		assert.ErrorIs(t, err, ErrEmptyCrop)
	})
}

func TestSimpleMean(t *testing.T) {
	f := makeField([]float64{40, 41}, []float64{260, 261}, func(lat, lon float64) float64 {
		return 10
	})
	f.Values[0][0] = 30
	// (30 + 10 + 10 + 10) / 4
	assert.InDelta(t, 15.0, f.SimpleMean(), 1e-9)
}

func TestWeightedMean(t *testing.T) {
	spec := weightgrid.Spec{
		Region:     domain.BoundingBox{LatMin: 38, LatMax: 42, LonMin: 258, LonMax: 262},
		Resolution: 1,
		SigmaLat:   1.0,
		SigmaLon:   1.0,
	}
	g, err := weightgrid.Build(spec, []weightgrid.Anchor{{Lat: 40, Lon: 260, Weight: 1}})
	require.NoError(t, err)

	t.Run("pulls mean toward the weighted center", func(t *testing.T) {
		// Cold at the center, warm at the edges.
		f := makeField(weightgrid.Axis(38, 42, 1), weightgrid.Axis(258, 262, 1),
			func(lat, lon float64) float64 {
				if lat == 40 && lon == 260 {
					return 20
				}
				return 60
			})

		weighted, err := f.WeightedMean(g)
		require.NoError(t, err)
		assert.Less(t, weighted, f.SimpleMean())
		assert.Greater(t, weighted, 20.0)
	})

	t.Run("nil grid degrades to simple mean", func(t *testing.T) {
		f := makeField([]float64{40}, []float64{260}, func(lat, lon float64) float64 { return 33 })
		weighted, err := f.WeightedMean(nil)
		require.NoError(t, err)
		assert.Equal(t, f.SimpleMean(), weighted)
	})

	t.Run("disjoint grid returns ErrNoWeights", func(t *testing.T) {
		f := makeField([]float64{10, 11}, []float64{100, 101}, func(lat, lon float64) float64 { return 50 })
		_, err := f.WeightedMean(g)
		assert.ErrorIs(t, err, ErrNoWeights)
	})

	t.Run("uniform field means agree", func(t *testing.T) {
		f := makeField(weightgrid.Axis(38, 42, 1), weightgrid.Axis(258, 262, 1),
			func(lat, lon float64) float64 { return 41.5 })
		weighted, err := f.WeightedMean(g)
		require.NoError(t, err)
		assert.InDelta(t, 41.5, weighted, 1e-9)
	})
}

func TestFahrenheit(t *testing.T) {
	f := makeField([]float64{40}, []float64{260}, func(lat, lon float64) float64 { return 273.15 })
	f.Unit = domain.UnitKelvin

	converted := f.Fahrenheit()
	assert.Equal(t, domain.UnitFahrenheit, converted.Unit)
	assert.InDelta(t, 32.0, converted.Values[0][0], 1e-9)
	// Original untouched.
	assert.Equal(t, 273.15, f.Values[0][0])

	same := converted.Fahrenheit()
	assert.Equal(t, converted, same)
}

func TestMin(t *testing.T) {
	f := makeField([]float64{40, 41}, []float64{260, 261}, func(lat, lon float64) float64 { return lat + lon })
	f.Values[1][0] = -12.5

	min, err := f.Min()
	require.NoError(t, err)
	assert.Equal(t, -12.5, min)

	_, err = (&Field{}).Min()
	assert.Error(t, err)
}

func TestReduce(t *testing.T) {
	g, err := weightgrid.Build(weightgrid.Spec{
		Region:     domain.BoundingBox{LatMin: 25, LatMax: 50, LonMin: 235, LonMax: 295},
		Resolution: 0.25,
		SigmaLat:   2.5,
		SigmaLon:   3.0,
	}, []weightgrid.Anchor{{Lat: 45, Lon: 285, Weight: 1}})
	require.NoError(t, err)

	t.Run("kelvin field produces both figures", func(t *testing.T) {
		f := makeField(weightgrid.Axis(25, 50, 1), weightgrid.Axis(235, 295, 1),
			func(lat, lon float64) float64 { return 273.15 + (50 - lat) })
		f.Unit = domain.UnitKelvin

		simple, weighted, err := Reduce(f, conusBox(), g)
		require.NoError(t, err)

		// Warmer in the south; the grid is anchored in the cold northeast.
		assert.Less(t, weighted, simple)
		assert.Greater(t, simple, 32.0)
	})

	t.Run("grid without overlap falls back to simple", func(t *testing.T) {
		narrow, err := weightgrid.Build(weightgrid.Spec{
			Region:     domain.BoundingBox{LatMin: 26, LatMax: 28, LonMin: 236, LonMax: 238},
			Resolution: 1,
			SigmaLat:   1,
			SigmaLon:   1,
		}, []weightgrid.Anchor{{Lat: 27, Lon: 237, Weight: 1}})
		require.NoError(t, err)

		f := makeField([]float64{45, 46}, []float64{285, 286}, func(lat, lon float64) float64 { return 50 })
		simple, weighted, err := Reduce(f, conusBox(), narrow)
		require.NoError(t, err)
		assert.Equal(t, simple, weighted)
	})

	t.Run("crop miss surfaces ErrEmptyCrop", func(t *testing.T) {
		f := makeField([]float64{10}, []float64{100}, func(lat, lon float64) float64 { return 50 })
		_, _, err := Reduce(f, conusBox(), g)
		assert.ErrorIs(t, err, ErrEmptyCrop)
	})
}
