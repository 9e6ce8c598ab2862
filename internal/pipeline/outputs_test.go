package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galehop/weather-desk/internal/analysis"
	"github.com/galehop/weather-desk/internal/market"
)

func TestWriteCSVCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", "deep", "artifact.csv")
	require.NoError(t, writeCSV(path, []string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}}))

	rows := readCSVFile(t, path)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}}, rows)
}

func TestTotalRowsFirstRunHasEmptyChange(t *testing.T) {
	rows := totalRows([]analysis.RunTotal{
		{Model: "GFS", RunID: "20260115_00", TotalHDD: 66, TotalHDDGW: 72},
		{Model: "GFS", RunID: "20260115_06", TotalHDD: 74, TotalHDDGW: 80, HasPrev: true, Change: 8, ChangeGW: 8},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"GFS", "20260115_00", "66.0", "72.0", "", ""}, rows[0])
	assert.Equal(t, []string{"GFS", "20260115_06", "74.0", "80.0", "8.0", "8.0"}, rows[1])
}

func TestDisagreementRowsOneFamilySilent(t *testing.T) {
	day := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	rows := disagreementRows([]market.DisagreementDay{
		{Date: day, PhysicsMean: 21.5, HasPhysics: true},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"2026-01-16", "21.5", "", "", "", ""}, rows[0])
}

func TestCompositeRowsFormatting(t *testing.T) {
	day := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	rows := compositeRows([]market.CompositeDay{
		{
			Date: day, MasterTDD: 22.25, Spread: 2.0, Volatility: 40,
			PowerBurn: 10.814, WindAnom: -1.6, Score: 0.525, Bias: market.BiasStrongBull,
		},
	})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{
		"2026-01-16", "22.3", "2.0", "40.0", "10.8", "-1.6", "0.53", "STRONG BULL",
	}, rows[0])
}

func TestFreezeOffHeaderFollowsBasinOrder(t *testing.T) {
	header := freezeOffHeader([]market.Basin{{Name: "Permian"}, {Name: "Bakken"}})
	assert.Equal(t, []string{
		"date", "Permian_minF", "Permian_loss", "Bakken_minF", "Bakken_loss",
		"Total_US_FreezeOff_MMcfd",
	}, header)
}

func TestFreezeOffRowsMissingBasinLeftEmpty(t *testing.T) {
	day := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	basins := []market.Basin{{Name: "Permian"}, {Name: "Appalachia"}}
	rows := freezeOffRows([]market.FreezeOffDay{
		{
			Date: day,
			Basins: map[string]market.BasinRisk{
				"Permian": {HasData: true, MinF: 19.4, Loss: 1032},
			},
			TotalLoss: 1032,
		},
	}, basins)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"2026-01-16", "19.4", "1032", "", "", "1032"}, rows[0])
}

func TestAnomalyRowsWithoutNormal(t *testing.T) {
	rec := analysis.AnomalyRecord{ForecastCDD: 0}
	rec.Date = time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	rec.Model = "GFS"
	rec.RunID = "20260115_00"
	rec.MeanTempF = 45
	rec.TDD = 20
	rec.TDDGW = 22

	rows := anomalyRows([]analysis.AnomalyRecord{rec})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{
		"2026-01-16", "GFS", "20260115_00", "45.0", "20.0", "22.0", "0.0",
		"", "", "", "", "", "", "",
	}, rows[0])
}
