// Package normals loads the 30-year daily climatology table and derives the
// gas-weighted and 10-year variants used for anomaly scoring.
package normals

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
)

// ErrNoNormal reports a calendar day with no climatology row.
var ErrNoNormal = errors.New("no normal for date")

// Normal is one calendar day's climatology.
type Normal struct {
	Month     int
	Day       int
	HDD       float64
	CDD       float64
	MeanTempF float64

	// Gas-weighted variants; backfilled from the simple values when the
	// table carries no GW columns.
	HDDGW float64
	CDDGW float64
	HasGW bool
}

// DefaultMonthlyScale maps month to the gas-weighted HDD correction factor
// (GW mean over simple national mean). The correction peaks in deep winter
// when northeast and midwest demand dominates and fades through the
// shoulder months. Unlisted months scale by 1.0.
var DefaultMonthlyScale = map[int]float64{
	1:  1.18,
	2:  1.16,
	3:  1.10,
	4:  1.06,
	5:  1.03,
	6:  1.00,
	7:  1.00,
	8:  1.00,
	9:  1.02,
	10: 1.06,
	11: 1.12,
	12: 1.16,
}

type monthDay struct{ month, day int }

// Table holds one normal per calendar day. Feb 29 is optional; lookups for
// it fall back to Feb 28.
type Table struct {
	byDay map[monthDay]Normal
}

// New builds a table from per-day normals. Days without HasGW get their
// gas-weighted values backfilled from the simple ones, matching Load.
func New(days []Normal) (*Table, error) {
	t := &Table{byDay: make(map[monthDay]Normal, len(days))}
	for _, n := range days {
		if n.Month < 1 || n.Month > 12 || n.Day < 1 || n.Day > 31 {
			return nil, fmt.Errorf("normals: bad day %02d-%02d", n.Month, n.Day)
		}
		k := monthDay{n.Month, n.Day}
		if _, ok := t.byDay[k]; ok {
			return nil, fmt.Errorf("normals: duplicate day %02d-%02d", n.Month, n.Day)
		}
		if !n.HasGW {
			n.HDDGW, n.CDDGW = n.HDD, n.CDD
		}
		t.byDay[k] = n
	}
	return t, nil
}

// Len returns the number of calendar days covered.
func (t *Table) Len() int { return len(t.byDay) }

// Lookup returns the normal for a calendar day. A missing Feb 29 falls back
// to Feb 28; any other missing day returns ErrNoNormal.
func (t *Table) Lookup(month, day int) (Normal, error) {
	if n, ok := t.byDay[monthDay{month, day}]; ok {
		return n, nil
	}
	if month == 2 && day == 29 {
		if n, ok := t.byDay[monthDay{2, 28}]; ok {
			return n, nil
		}
	}
	return Normal{}, fmt.Errorf("%w: %02d-%02d", ErrNoNormal, month, day)
}

// LookupDate is Lookup keyed by a date's calendar day.
func (t *Table) LookupDate(d time.Time) (Normal, error) {
	return t.Lookup(int(d.Month()), d.Day())
}

// DeriveGasWeighted returns a copy of the table with gas-weighted HDD
// normals scaled by the per-month factors. Cooling normals pass through
// unscaled. Values are rounded to one decimal.
func (t *Table) DeriveGasWeighted(scale map[int]float64) *Table {
	out := &Table{byDay: make(map[monthDay]Normal, len(t.byDay))}
	for k, n := range t.byDay {
		f, ok := scale[n.Month]
		if !ok {
			f = 1.0
		}
		n.HDDGW = domain.Round1(n.HDD * f)
		n.CDDGW = n.CDD
		n.HasGW = true
		out.byDay[k] = n
	}
	return out
}

// Days returns the normals in calendar order.
func (t *Table) Days() []Normal {
	out := make([]Normal, 0, len(t.byDay))
	for _, n := range t.byDay {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Day < out[j].Day
	})
	return out
}

// Load reads a normals CSV with columns month, day, hdd_normal, cdd_normal,
// mean_temp_f and optional hdd_normal_gw, cdd_normal_gw. Duplicate calendar
// days and malformed rows fail the load.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load normals: %w", err)
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("load normals: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("load normals: %s is empty", path)
	}

	col := make(map[string]int, len(all[0]))
	for i, h := range all[0] {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"month", "day", "hdd_normal", "cdd_normal", "mean_temp_f"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("load normals: %s missing column %q", path, required)
		}
	}

	t := &Table{byDay: make(map[monthDay]Normal, len(all)-1)}
	for i, row := range all[1:] {
		n, err := parseNormal(row, col)
		if err != nil {
			return nil, fmt.Errorf("load normals: %s line %d: %w", path, i+2, err)
		}
		k := monthDay{n.Month, n.Day}
		if _, dup := t.byDay[k]; dup {
			return nil, fmt.Errorf("load normals: %s line %d: duplicate day %02d-%02d", path, i+2, n.Month, n.Day)
		}
		t.byDay[k] = n
	}
	return t, nil
}

func parseNormal(row []string, col map[string]int) (Normal, error) {
	cell := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var n Normal
	var err error
	if n.Month, err = strconv.Atoi(cell("month")); err != nil || n.Month < 1 || n.Month > 12 {
		return n, fmt.Errorf("bad month %q", cell("month"))
	}
	if n.Day, err = strconv.Atoi(cell("day")); err != nil || n.Day < 1 || n.Day > 31 {
		return n, fmt.Errorf("bad day %q", cell("day"))
	}
	if n.HDD, err = strconv.ParseFloat(cell("hdd_normal"), 64); err != nil {
		return n, fmt.Errorf("bad hdd_normal %q", cell("hdd_normal"))
	}
	if n.CDD, err = strconv.ParseFloat(cell("cdd_normal"), 64); err != nil {
		return n, fmt.Errorf("bad cdd_normal %q", cell("cdd_normal"))
	}
	if n.MeanTempF, err = strconv.ParseFloat(cell("mean_temp_f"), 64); err != nil {
		return n, fmt.Errorf("bad mean_temp_f %q", cell("mean_temp_f"))
	}

	if cell("hdd_normal_gw") == "" || cell("cdd_normal_gw") == "" {
		n.HDDGW, n.CDDGW = n.HDD, n.CDD
		return n, nil
	}
	if n.HDDGW, err = strconv.ParseFloat(cell("hdd_normal_gw"), 64); err != nil {
		return n, fmt.Errorf("bad hdd_normal_gw %q", cell("hdd_normal_gw"))
	}
	if n.CDDGW, err = strconv.ParseFloat(cell("cdd_normal_gw"), 64); err != nil {
		return n, fmt.Errorf("bad cdd_normal_gw %q", cell("cdd_normal_gw"))
	}
	n.HasGW = true
	return n, nil
}

// Save writes the table in calendar order. Gas-weighted cells stay empty
// for days whose GW values are backfills, so provenance survives a round
// trip.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save normals: %w", err)
	}

	w := csv.NewWriter(f)
	w.Write([]string{"month", "day", "hdd_normal", "cdd_normal", "mean_temp_f", "hdd_normal_gw", "cdd_normal_gw"})
	for _, n := range t.Days() {
		gwHDD, gwCDD := "", ""
		if n.HasGW {
			gwHDD = format1(n.HDDGW)
			gwCDD = format1(n.CDDGW)
		}
		w.Write([]string{
			strconv.Itoa(n.Month),
			strconv.Itoa(n.Day),
			format1(n.HDD),
			format1(n.CDD),
			format1(n.MeanTempF),
			gwHDD,
			gwCDD,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("save normals: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save normals: %w", err)
	}
	return nil
}

func format1(v float64) string {
	return strconv.FormatFloat(domain.Round1(v), 'f', 1, 64)
}
