package runstore

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
)

// ErrBaseTempMismatch reports a master file written against a different
// degree-day base temperature than the one configured. Rows computed
// against one base cannot be compared to normals computed against another.
var ErrBaseTempMismatch = errors.New("base temperature mismatch")

// masterHeader is the canonical master CSV column order.
var masterHeader = []string{"date", "mean_temp", "tdd", "mean_temp_gw", "tdd_gw", "model", "run_id"}

// masterMeta is the JSON sidecar written next to the master CSV.
type masterMeta struct {
	BaseTempF float64 `json:"base_temp_f"`
	Rows      int     `json:"rows"`
	WrittenAt string  `json:"written_at"`
}

// SaveMaster writes the deduplicated, sorted ledger to path along with a
// _meta.json sidecar recording baseTempF. Values are rounded to one decimal
// at this write boundary; rows without real gas-weighted values leave those
// cells empty so provenance survives the round trip.
func (s *Store) SaveMaster(path string, baseTempF float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save master: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save master: %w", err)
	}

	w := csv.NewWriter(f)
	w.Write(masterHeader)
	for _, rec := range s.Records() {
		gwTemp, gwTDD := "", ""
		if rec.HasGW {
			gwTemp = format1(rec.MeanTempGW)
			gwTDD = format1(rec.TDDGW)
		}
		w.Write([]string{
			rec.Date.Format(domain.DateLayout),
			format1(rec.MeanTempF),
			format1(rec.TDD),
			gwTemp,
			gwTDD,
			rec.Model,
			rec.RunID,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("save master: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save master: %w", err)
	}

	meta := masterMeta{
		BaseTempF: baseTempF,
		Rows:      s.Len(),
		WrittenAt: domain.NowRunStamp().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("save master meta: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(metaPath(path), data, 0o644); err != nil {
		return fmt.Errorf("save master meta: %w", err)
	}
	return nil
}

// LoadMaster reads a master CSV previously written by SaveMaster into a
// fresh store. A sidecar declaring a different base temperature fails with
// ErrBaseTempMismatch; a missing sidecar is accepted for files that predate
// it. Malformed rows fail the load: the master is our own output, so damage
// means the file should not be trusted.
func LoadMaster(path string, baseTempF float64) (*Store, error) {
	raw, err := os.ReadFile(metaPath(path))
	switch {
	case err == nil:
		var meta masterMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("load master meta: %w", err)
		}
		if meta.BaseTempF != baseTempF {
			return nil, fmt.Errorf("%w: %s uses base %.1f, configured %.1f",
				ErrBaseTempMismatch, path, meta.BaseTempF, baseTempF)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("load master meta: %w", err)
	}

	rows, err := readRows(path)
	if err != nil {
		return nil, fmt.Errorf("load master: %w", err)
	}

	s := New()
	for _, row := range rows {
		rec, reason := parseRecord(row, "")
		if reason != "" {
			return nil, fmt.Errorf("load master: %s line %d: %s", path, row.line, reason)
		}
		s.Put(rec)
	}
	return s, nil
}

func metaPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_meta.json"
}

func format1(v float64) string {
	return strconv.FormatFloat(domain.Round1(v), 'f', 1, 64)
}
