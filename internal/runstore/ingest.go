package runstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/galehop/weather-desk/internal/domain"
)

// Source names one per-run CSV to ingest. An empty Model infers the label
// from the path, matching the data layout where each model writes under its
// own directory (data/gfs/, data/ecmwf/, data/open_meteo/). A model column
// in the file itself takes precedence over both.
type Source struct {
	Path  string
	Model string
}

// SkippedRow is a data row dropped during ingest.
type SkippedRow struct {
	Path   string
	Line   int
	Reason string
}

// IngestReport summarizes one Ingest call. Rows counts rows applied to the
// store, including replacements; Duplicates counts how many of those
// replaced an earlier row with the same (model, run_id, date) key.
type IngestReport struct {
	Rows       int
	Duplicates int
	Skipped    []SkippedRow
}

// Ingest loads per-run CSVs into the store. When two rows share a key the
// one seen last wins. Unreadable files abort the call; malformed rows are
// dropped and reported in Skipped.
func (s *Store) Ingest(sources ...Source) (IngestReport, error) {
	var report IngestReport
	for _, src := range sources {
		model := src.Model
		if model == "" {
			model = InferModel(src.Path)
		}

		rows, err := readRows(src.Path)
		if err != nil {
			return report, fmt.Errorf("%s: %w", model, err)
		}

		for _, row := range rows {
			rec, reason := parseRecord(row, model)
			if reason != "" {
				report.Skipped = append(report.Skipped, SkippedRow{Path: src.Path, Line: row.line, Reason: reason})
				continue
			}
			if s.Put(rec) {
				report.Duplicates++
			}
			report.Rows++
		}
	}
	return report, nil
}

// InferModel derives a model label from a file path.
func InferModel(path string) string {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "gfs"):
		return domain.ModelGFS
	case strings.Contains(p, "ecmwf"):
		return domain.ModelECMWF
	default:
		return domain.ModelOpenMeteo
	}
}

// csvRow is a parsed CSV row with values keyed by header name.
type csvRow struct {
	line   int
	fields map[string]string
}

func readRows(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errors.New("empty csv")
	}

	header := all[0]
	rows := make([]csvRow, 0, len(all)-1)
	for i, rec := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(rec) {
				fields[h] = strings.TrimSpace(rec[j])
			}
		}
		rows = append(rows, csvRow{line: i + 2, fields: fields})
	}
	return rows, nil
}

// parseRecord maps a header-keyed row to a DailyRecord. fallbackModel fills
// in when the file carries no model column. The returned reason is empty on
// success.
func parseRecord(row csvRow, fallbackModel string) (domain.DailyRecord, string) {
	var rec domain.DailyRecord

	var err error
	if rec.Date, err = domain.ParseDate(row.fields["date"]); err != nil {
		return rec, fmt.Sprintf("bad date %q", row.fields["date"])
	}

	rec.Model = row.fields["model"]
	if rec.Model == "" {
		rec.Model = fallbackModel
	}
	if rec.Model == "" {
		return rec, "missing model"
	}

	rec.RunID = row.fields["run_id"]
	if !domain.ValidRunID(rec.RunID) {
		return rec, fmt.Sprintf("bad run_id %q", rec.RunID)
	}

	if rec.MeanTempF, err = floatField(row, "mean_temp"); err != nil {
		return rec, err.Error()
	}
	if rec.TDD, err = floatField(row, "tdd"); err != nil {
		return rec, err.Error()
	}

	// Gas-weighted columns are optional; without them the simple values
	// stand in so downstream consumers never see zeros.
	if row.fields["mean_temp_gw"] == "" || row.fields["tdd_gw"] == "" {
		rec.MeanTempGW = rec.MeanTempF
		rec.TDDGW = rec.TDD
		return rec, ""
	}
	if rec.MeanTempGW, err = floatField(row, "mean_temp_gw"); err != nil {
		return rec, err.Error()
	}
	if rec.TDDGW, err = floatField(row, "tdd_gw"); err != nil {
		return rec, err.Error()
	}
	rec.HasGW = true
	return rec, ""
}

func floatField(row csvRow, col string) (float64, error) {
	v, err := strconv.ParseFloat(row.fields[col], 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", col, row.fields[col])
	}
	return v, nil
}
