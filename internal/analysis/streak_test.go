package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func totalsWithChanges(changes ...float64) []RunTotal {
	total := 100.0
	totals := []RunTotal{{Model: "GFS", RunID: "20260110_00", TotalHDD: total}}
	for i, c := range changes {
		total += c
		totals = append(totals, RunTotal{
			Model:    "GFS",
			RunID:    fmt.Sprintf("20260110_%02d", (i+1)*6),
			TotalHDD: total,
			HasPrev:  true,
			Change:   c,
		})
	}
	return totals
}

func TestStreakCountsConsecutiveRevisions(t *testing.T) {
	s := StreakFor(totalsWithChanges(1, 2, 3))

	assert.Equal(t, 3, s.Count)
	assert.True(t, s.Bullish)
	assert.InDelta(t, 3.0, s.Latest, 1e-9)
	assert.Equal(t, "3rd consecutive bullish revision 🔺🔺🔺", s.Describe())
}

func TestStreakResetsOnSignFlip(t *testing.T) {
	s := StreakFor(totalsWithChanges(-1, 2))

	assert.Equal(t, 1, s.Count)
	assert.True(t, s.Bullish)
	assert.Equal(t, "1st consecutive bullish revision 🔺", s.Describe())
}

func TestStreakBearish(t *testing.T) {
	s := StreakFor(totalsWithChanges(-1, -0.5))

	assert.Equal(t, 2, s.Count)
	assert.False(t, s.Bullish)
	assert.Equal(t, "2nd consecutive bearish revision 🔻🔻", s.Describe())
}

func TestStreakUnchanged(t *testing.T) {
	s := StreakFor(totalsWithChanges(2, 0))
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, "unchanged vs previous run", s.Describe())
}

func TestStreakFirstRun(t *testing.T) {
	s := StreakFor(totalsWithChanges())
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, "unchanged vs previous run", s.Describe())
}

func TestStreakEmpty(t *testing.T) {
	assert.Equal(t, "unchanged vs previous run", StreakFor(nil).Describe())
}

func TestStreakArrowsCapAtFive(t *testing.T) {
	s := StreakFor(totalsWithChanges(-1, -1, -2, -1, -3, -2, -1))

	assert.Equal(t, 7, s.Count)
	assert.Equal(t, "7th consecutive bearish revision 🔻🔻🔻🔻🔻", s.Describe())
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{
		1:   "1st",
		2:   "2nd",
		3:   "3rd",
		4:   "4th",
		11:  "11th",
		12:  "12th",
		13:  "13th",
		21:  "21st",
		22:  "22nd",
		103: "103rd",
	}
	for n, want := range cases {
		assert.Equal(t, want, ordinal(n), "n=%d", n)
	}
}
