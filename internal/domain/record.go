package domain

import "time"

// DateLayout is the serialized form of forecast dates.
const DateLayout = "2006-01-02"

// Model labels as the acquisition layer writes them into run ledgers.
const (
	ModelGFS       = "GFS"
	ModelECMWF     = "ECMWF"
	ModelOpenMeteo = "OPEN_METEO"
)

// DailyRecord is one forecast day from one model run, reduced to CONUS means.
type DailyRecord struct {
	Date       time.Time
	Model      string
	RunID      string
	MeanTempF  float64
	TDD        float64
	MeanTempGW float64
	TDDGW      float64

	// HasGW is false when the gas-weighted columns were backfilled from the
	// simple columns on read.
	HasGW bool
}

// RecordKey identifies a DailyRecord for deduplication.
type RecordKey struct {
	Model string
	RunID string
	Date  string
}

// Key returns the record's deduplication identity.
func (r DailyRecord) Key() RecordKey {
	return RecordKey{Model: r.Model, RunID: r.RunID, Date: r.Date.Format(DateLayout)}
}

// Day returns the forecast date in DateLayout form, the join key for
// date-aligned comparisons.
func (r DailyRecord) Day() string {
	return r.Date.Format(DateLayout)
}

// Less orders records by (model, run_id, date), the ledger sort order.
func (r DailyRecord) Less(other DailyRecord) bool {
	if r.Model != other.Model {
		return r.Model < other.Model
	}
	if r.RunID != other.RunID {
		return r.RunID < other.RunID
	}
	return r.Date.Before(other.Date)
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" date as a UTC day.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
