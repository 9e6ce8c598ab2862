package market

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeries(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTemperatures(t *testing.T) {
	path := writeSeries(t, `date,station,value,unit
2026-07-10,Dallas,0,celsius
2026-07-10,Houston,300,kelvin
2026-07-11,Dallas,72,
`)

	days, err := LoadTemperatures(path)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.InDelta(t, 32.0, days[0].Value, 1e-9)
	assert.InDelta(t, 80.33, days[1].Value, 1e-6)
	assert.InDelta(t, 72.0, days[2].Value, 1e-9, "unitless rows pass through")
	assert.Equal(t, "Dallas", days[0].Station)
}

func TestLoadWindSpeeds(t *testing.T) {
	path := writeSeries(t, `date,station,value,unit
2026-01-16,Sweetwater,36,kmh
2026-01-16,Amarillo,36,km/h
2026-01-16,Corpus Christi,7,ms
`)

	days, err := LoadWindSpeeds(path)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.InDelta(t, 10.000008, days[0].Value, 1e-9)
	assert.InDelta(t, 10.000008, days[1].Value, 1e-9)
	assert.InDelta(t, 7.0, days[2].Value, 1e-9)
}

func TestLoadSeriesErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing column", "date,value\n2026-01-16,5\n"},
		{"bad date", "date,station,value\nyesterday,Dallas,5\n"},
		{"bad value", "date,station,value\n2026-01-16,Dallas,warm\n"},
		{"missing station", "date,station,value\n2026-01-16,,5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTemperatures(writeSeries(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadTemperatures(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func burnHubs() []Hub {
	return []Hub{{"Dallas", 25}, {"Houston", 18}, {"Atlanta", 12}}
}

func windHubs() []Hub {
	return []Hub{
		{"Sweetwater", 5},
		{"Amarillo", 3},
		{"Corpus Christi", 2},
		{"Dodge City", 3},
		{"Des Moines", 2},
	}
}

func TestPowerBurn(t *testing.T) {
	d1 := mustDate(t, "2026-07-10")
	d2 := mustDate(t, "2026-07-11")

	days := PowerBurn([]StationDay{
		{Station: "Dallas", Date: d1, Value: 85},
		{Station: "Houston", Date: d1, Value: 75},
		{Station: "Nowhere", Date: d1, Value: 100},
		{Station: "Atlanta", Date: d2, Value: 80},
	}, burnHubs(), 65)
	require.Len(t, days, 2)

	// (20*25 + 10*18) / 43, reweighted to the two reporting hubs.
	assert.InDelta(t, 15.81, days[0].Value, 1e-9)
	assert.InDelta(t, 15.0, days[1].Value, 1e-9)
	assert.True(t, days[0].Date.Before(days[1].Date))
}

func TestWindAnomaly(t *testing.T) {
	d1 := mustDate(t, "2026-01-16")
	d2 := mustDate(t, "2026-01-17")
	d3 := mustDate(t, "2026-01-18")

	days := WindAnomaly([]StationDay{
		{Station: "Sweetwater", Date: d1, Value: 5},
		{Station: "Amarillo", Date: d1, Value: 3},
		{Station: "Dodge City", Date: d2, Value: 9},
		{Station: "Des Moines", Date: d3, Value: 6.5},
	}, windHubs(), 6.0)
	require.Len(t, days, 3)

	assert.InDelta(t, -1.75, days[0].Anomaly, 1e-9, "(5*5 + 3*3) / 8 vs typical 6")
	assert.Equal(t, WindBullish, days[0].Signal)

	assert.InDelta(t, 3.0, days[1].Anomaly, 1e-9)
	assert.Equal(t, WindBearish, days[1].Signal)

	assert.InDelta(t, 0.5, days[2].Anomaly, 1e-9)
	assert.Equal(t, WindNeutral, days[2].Signal)
}

func TestWindSignalBoundaries(t *testing.T) {
	assert.Equal(t, WindNeutral, windSignal(-1.5), "band edges stay neutral")
	assert.Equal(t, WindNeutral, windSignal(2.0))
	assert.Equal(t, WindBullish, windSignal(-1.51))
	assert.Equal(t, WindBearish, windSignal(2.01))
}
