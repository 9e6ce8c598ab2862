package weightgrid

import (
	"math"
	"testing"

	"github.com/galehop/weather-desk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conusSpec() Spec {
	return Spec{
		Region:     domain.BoundingBox{LatMin: 25, LatMax: 50, LonMin: 235, LonMax: 295},
		Resolution: 0.25,
		SigmaLat:   2.5,
		SigmaLon:   3.0,
	}
}

func TestAxis(t *testing.T) {
	t.Run("CONUS axes include both bounds", func(t *testing.T) {
		lats := Axis(25, 50, 0.25)
		lons := Axis(235, 295, 0.25)

		assert.Len(t, lats, 101)
		assert.Len(t, lons, 241)
		assert.Equal(t, 25.0, lats[0])
		assert.Equal(t, 50.0, lats[len(lats)-1])
		assert.Equal(t, 235.0, lons[0])
		assert.Equal(t, 295.0, lons[len(lons)-1])
	})

	t.Run("unit step", func(t *testing.T) {
		assert.Equal(t, []float64{0, 1, 2, 3}, Axis(0, 3, 1))
	})
}

func TestBuild(t *testing.T) {
	t.Run("sums to one", func(t *testing.T) {
		g, err := Build(conusSpec(), []Anchor{
			{Lat: 40.0, Lon: 260.0, Weight: 100},
			{Lat: 45.0, Lon: 285.0, Weight: 50},
		})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, g.Sum(), 1e-9)
	})

	t.Run("non-negative everywhere", func(t *testing.T) {
		g, err := Build(conusSpec(), []Anchor{{Lat: 40.0, Lon: 260.0, Weight: 1}})
		require.NoError(t, err)
		for i := range g.Values {
			for j, w := range g.Values[i] {
				require.GreaterOrEqual(t, w, 0.0, "cell (%d,%d)", i, j)
			}
		}
	})

	t.Run("peak at single anchor", func(t *testing.T) {
		g, err := Build(conusSpec(), []Anchor{{Lat: 40.0, Lon: 260.0, Weight: 42}})
		require.NoError(t, err)

		lat, lon, w := g.Peak()
		assert.Equal(t, 40.0, lat)
		assert.Equal(t, 260.0, lon)
		assert.Positive(t, w)
	})

	t.Run("decays monotonically from anchor", func(t *testing.T) {
		g, err := Build(conusSpec(), []Anchor{{Lat: 40.0, Lon: 260.0, Weight: 1}})
		require.NoError(t, err)

		latIdx := indexOf(t, g.Lats, 40.0)
		lonIdx := indexOf(t, g.Lons, 260.0)

		// Walk east along the anchor latitude: weight falls off each step.
		for j := lonIdx; j < len(g.Lons)-1; j++ {
			assert.Greater(t, g.Values[latIdx][j], g.Values[latIdx][j+1],
				"lon %g vs %g", g.Lons[j], g.Lons[j+1])
		}
		// Walk north along the anchor longitude.
		for i := latIdx; i < len(g.Lats)-1; i++ {
			assert.Greater(t, g.Values[i][lonIdx], g.Values[i+1][lonIdx])
		}
	})

	t.Run("west-negative anchor lon is normalized", func(t *testing.T) {
		east, err := Build(conusSpec(), []Anchor{{Lat: 40.0, Lon: 260.0, Weight: 1}})
		require.NoError(t, err)
		west, err := Build(conusSpec(), []Anchor{{Lat: 40.0, Lon: -100.0, Weight: 1}})
		require.NoError(t, err)

		for i := range east.Values {
			for j := range east.Values[i] {
				require.InDelta(t, east.Values[i][j], west.Values[i][j], 1e-12)
			}
		}
	})

	t.Run("no anchors", func(t *testing.T) {
		_, err := Build(conusSpec(), nil)
		assert.ErrorIs(t, err, ErrNoAnchors)
	})

	t.Run("degenerate region", func(t *testing.T) {
		spec := conusSpec()
		spec.Region.LatMax = spec.Region.LatMin
		_, err := Build(spec, []Anchor{{Lat: 40, Lon: 260, Weight: 1}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "degenerate")
	})

	t.Run("non-positive sigma", func(t *testing.T) {
		spec := conusSpec()
		spec.SigmaLat = 0
		_, err := Build(spec, []Anchor{{Lat: 40, Lon: 260, Weight: 1}})
		require.Error(t, err)
	})

	t.Run("deterministic", func(t *testing.T) {
		anchors := []Anchor{{Lat: 40, Lon: 260, Weight: 3}, {Lat: 30, Lon: 270, Weight: 7}}
		a, err := Build(conusSpec(), anchors)
		require.NoError(t, err)
		b, err := Build(conusSpec(), anchors)
		require.NoError(t, err)
		assert.Equal(t, a.Values, b.Values)
	})
}

func TestTopCells(t *testing.T) {
	g, err := Build(conusSpec(), []Anchor{
		{Lat: 42.0, Lon: 272.0, Weight: 10},
		{Lat: 30.0, Lon: 290.0, Weight: 1},
	})
	require.NoError(t, err)

	top := g.TopCells(5)
	require.Len(t, top, 5)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Weight, top[i].Weight)
	}
	// The heavy anchor dominates the top cell.
	assert.InDelta(t, 42.0, top[0].Lat, 0.26)
	assert.InDelta(t, 272.0, top[0].Lon, 0.26)
}

func indexOf(t *testing.T, axis []float64, v float64) int {
	t.Helper()
	for i, a := range axis {
		if math.Abs(a-v) < 1e-9 {
			return i
		}
	}
	t.Fatalf("value %g not on axis", v)
	return -1
}
