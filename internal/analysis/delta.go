package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/runstore"
)

var (
	// ErrNotEnoughRuns means the ledger holds no prior run to compare
	// against.
	ErrNotEnoughRuns = errors.New("not enough runs")

	// ErrNoOverlap means the two runs share no forecast dates.
	ErrNoOverlap = errors.New("no overlapping dates")
)

// DayDelta is one forecast date covered by both of a model's two latest
// runs.
type DayDelta struct {
	Date time.Time

	Latest float64
	Prev   float64
	Change float64

	LatestGW float64
	PrevGW   float64
	ChangeGW float64
}

// DayAlignment holds the date-by-date revision between a model's two
// latest runs. Days covers only the dates both runs forecast; a fresh
// model cycle that shifted its horizon can leave it empty.
type DayAlignment struct {
	Model     string
	LatestRun string
	PrevRun   string
	Days      []DayDelta
}

// DayAligned diffs the two latest runs of model date by date. It fails
// with ErrNotEnoughRuns until the ledger holds at least two runs.
func DayAligned(store *runstore.Store, model string) (DayAlignment, error) {
	runs := store.RunsByModel()[model]
	if len(runs) < 2 {
		return DayAlignment{}, fmt.Errorf("%s: %w", model, ErrNotEnoughRuns)
	}

	a := DayAlignment{
		Model:     model,
		LatestRun: runs[len(runs)-1],
		PrevRun:   runs[len(runs)-2],
	}

	prevByDay := make(map[string]domain.DailyRecord)
	for _, rec := range store.Run(model, a.PrevRun) {
		prevByDay[rec.Day()] = rec
	}

	for _, rec := range store.Run(model, a.LatestRun) {
		prev, ok := prevByDay[rec.Day()]
		if !ok {
			continue
		}
		a.Days = append(a.Days, DayDelta{
			Date:     rec.Date,
			Latest:   rec.TDD,
			Prev:     prev.TDD,
			Change:   rec.TDD - prev.TDD,
			LatestGW: rec.TDDGW,
			PrevGW:   prev.TDDGW,
			ChangeGW: rec.TDDGW - prev.TDDGW,
		})
	}
	return a, nil
}

// OverlapChange averages the per-day change over the shared dates,
// rounded to 2 decimals. ErrNoOverlap when the runs share none.
func (a DayAlignment) OverlapChange() (float64, error) {
	if len(a.Days) == 0 {
		return 0, fmt.Errorf("%s: %w", a.Model, ErrNoOverlap)
	}
	var sum float64
	for _, d := range a.Days {
		sum += d.Change
	}
	return domain.Round2(sum / float64(len(a.Days))), nil
}

// RunTotal is one run's summed degree days and its change from the run
// before it. The first run in the ledger has HasPrev false.
type RunTotal struct {
	Model string
	RunID string

	TotalHDD   float64
	TotalHDDGW float64

	HasPrev  bool
	Change   float64
	ChangeGW float64
}

// RunAligned sums every run of model and chains consecutive changes in
// run order. ErrNotEnoughRuns when the ledger has no runs for the model
// at all.
func RunAligned(store *runstore.Store, model string) ([]RunTotal, error) {
	runs := store.RunsByModel()[model]
	if len(runs) == 0 {
		return nil, fmt.Errorf("%s: %w", model, ErrNotEnoughRuns)
	}

	totals := make([]RunTotal, 0, len(runs))
	for _, runID := range runs {
		t := RunTotal{Model: model, RunID: runID}
		for _, rec := range store.Run(model, runID) {
			t.TotalHDD += rec.TDD
			t.TotalHDDGW += rec.TDDGW
		}
		if n := len(totals); n > 0 {
			prev := totals[n-1]
			t.HasPrev = true
			t.Change = t.TotalHDD - prev.TotalHDD
			t.ChangeGW = t.TotalHDDGW - prev.TotalHDDGW
		}
		totals = append(totals, t)
	}
	return totals, nil
}
