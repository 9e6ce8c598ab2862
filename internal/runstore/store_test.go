package runstore

import (
	"testing"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func rec(model, runID, date string, tdd float64) domain.DailyRecord {
	return domain.DailyRecord{
		Date:       day(date),
		Model:      model,
		RunID:      runID,
		MeanTempF:  65 - tdd,
		TDD:        tdd,
		MeanTempGW: 65 - tdd,
		TDDGW:      tdd,
	}
}

func TestPutLastWins(t *testing.T) {
	s := New()
	assert.False(t, s.Put(rec("GFS", "20260115_00", "2026-01-16", 10)))
	assert.True(t, s.Put(rec("GFS", "20260115_00", "2026-01-16", 12)))

	require.Equal(t, 1, s.Len())
	assert.Equal(t, 12.0, s.Records()[0].TDD)
}

func TestRecordsSorted(t *testing.T) {
	s := New()
	s.Put(rec("GFS", "20260115_06", "2026-01-16", 1))
	s.Put(rec("ECMWF", "20260115_00", "2026-01-17", 2))
	s.Put(rec("GFS", "20260115_00", "2026-01-18", 3))
	s.Put(rec("GFS", "20260115_00", "2026-01-16", 4))

	got := s.Records()
	require.Len(t, got, 4)
	assert.Equal(t, "ECMWF", got[0].Model)
	assert.Equal(t, "20260115_00", got[1].RunID)
	assert.Equal(t, day("2026-01-16"), got[1].Date)
	assert.Equal(t, day("2026-01-18"), got[2].Date)
	assert.Equal(t, "20260115_06", got[3].RunID)
}

func TestLatestRun(t *testing.T) {
	s := New()
	s.Put(rec("GFS", "20260114_18", "2026-01-15", 1))
	s.Put(rec("GFS", "20260115_06", "2026-01-16", 2))
	s.Put(rec("GFS", "20260115_00", "2026-01-16", 3))

	latest, ok := s.LatestRun("GFS")
	require.True(t, ok)
	assert.Equal(t, "20260115_06", latest)

	_, ok = s.LatestRun("ICON")
	assert.False(t, ok)
}

func TestRunsByModel(t *testing.T) {
	s := New()
	s.Put(rec("GFS", "20260115_06", "2026-01-16", 1))
	s.Put(rec("GFS", "20260114_18", "2026-01-16", 2))
	s.Put(rec("GFS", "20260115_06", "2026-01-17", 3))
	s.Put(rec("ECMWF", "20260115_00", "2026-01-16", 4))

	runs := s.RunsByModel()
	assert.Equal(t, []string{"20260114_18", "20260115_06"}, runs["GFS"])
	assert.Equal(t, []string{"20260115_00"}, runs["ECMWF"])
}

func TestLatestPerModel(t *testing.T) {
	s := New()
	s.Put(rec("GFS", "20260114_18", "2026-01-15", 1))
	s.Put(rec("GFS", "20260115_00", "2026-01-17", 2))
	s.Put(rec("GFS", "20260115_00", "2026-01-16", 3))
	s.Put(rec("ECMWF", "20260115_00", "2026-01-16", 4))

	latest := s.LatestPerModel()
	require.Len(t, latest, 2)

	gfs := latest["GFS"]
	require.Len(t, gfs, 2)
	assert.Equal(t, "20260115_00", gfs[0].RunID)
	assert.Equal(t, day("2026-01-16"), gfs[0].Date, "rows sorted by date within the run")
	assert.Equal(t, day("2026-01-17"), gfs[1].Date)
}

func TestModels(t *testing.T) {
	s := New()
	assert.Empty(t, s.Models())

	s.Put(rec("GFS", "20260115_00", "2026-01-16", 1))
	s.Put(rec("ECMWF", "20260115_00", "2026-01-16", 2))
	s.Put(rec("GFS", "20260115_06", "2026-01-16", 3))

	assert.Equal(t, []string{"ECMWF", "GFS"}, s.Models())
}
