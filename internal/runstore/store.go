// Package runstore maintains the deduplicated ledger of per-run forecast
// records that backs every downstream comparison.
//
// Rows are keyed by (model, run_id, date). Ingesting a row whose key is
// already present replaces the earlier row, so re-running an ingest over the
// same files converges instead of accumulating duplicates. The ledger
// round-trips through a flat CSV with a JSON sidecar recording the degree-day
// base temperature the rows were computed against.
package runstore

import (
	"sort"

	"github.com/galehop/weather-desk/internal/domain"
)

// Store is the in-memory master ledger. Not safe for concurrent use; the
// pipeline runs its stages single-threaded.
type Store struct {
	records []domain.DailyRecord
	index   map[domain.RecordKey]int
}

// New returns an empty store.
func New() *Store {
	return &Store{index: make(map[domain.RecordKey]int)}
}

// Put inserts rec, replacing any existing row with the same
// (model, run_id, date) key. It reports whether a row was replaced.
func (s *Store) Put(rec domain.DailyRecord) bool {
	k := rec.Key()
	if i, ok := s.index[k]; ok {
		s.records[i] = rec
		return true
	}
	s.index[k] = len(s.records)
	s.records = append(s.records, rec)
	return false
}

// Len returns the number of distinct (model, run_id, date) rows held.
func (s *Store) Len() int { return len(s.records) }

// Records returns a copy of all rows sorted by (model, run_id, date).
func (s *Store) Records() []domain.DailyRecord {
	out := make([]domain.DailyRecord, len(s.records))
	copy(out, s.records)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Models returns the distinct model labels present, sorted.
func (s *Store) Models() []string {
	seen := make(map[string]struct{})
	for i := range s.records {
		seen[s.records[i].Model] = struct{}{}
	}
	models := make([]string, 0, len(seen))
	for m := range seen {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// RunsByModel returns the run ids present per model, ascending. Run ids
// sort lexicographically in chronological order.
func (s *Store) RunsByModel() map[string][]string {
	sets := make(map[string]map[string]struct{})
	for i := range s.records {
		r := s.records[i]
		if sets[r.Model] == nil {
			sets[r.Model] = make(map[string]struct{})
		}
		sets[r.Model][r.RunID] = struct{}{}
	}

	out := make(map[string][]string, len(sets))
	for model, set := range sets {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[model] = ids
	}
	return out
}

// Run returns the rows of one (model, run) sorted by date.
func (s *Store) Run(model, runID string) []domain.DailyRecord {
	var out []domain.DailyRecord
	for i := range s.records {
		if s.records[i].Model == model && s.records[i].RunID == runID {
			out = append(out, s.records[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// LatestRun returns the most recent run id seen for model.
func (s *Store) LatestRun(model string) (string, bool) {
	latest := ""
	for i := range s.records {
		if s.records[i].Model == model && s.records[i].RunID > latest {
			latest = s.records[i].RunID
		}
	}
	return latest, latest != ""
}

// LatestPerModel returns the rows of the most recent run for every model,
// sorted by date within each model.
func (s *Store) LatestPerModel() map[string][]domain.DailyRecord {
	out := make(map[string][]domain.DailyRecord)
	for _, model := range s.Models() {
		runID, ok := s.LatestRun(model)
		if !ok {
			continue
		}
		out[model] = s.Run(model, runID)
	}
	return out
}
