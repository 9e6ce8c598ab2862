package field

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/galehop/weather-desk/internal/domain"
)

// File suffixes for the persisted field pair, matching the weight grid pair.
const (
	BinSuffix  = ".f64"
	MetaSuffix = "_meta.json"
)

// Meta is the JSON sidecar the acquisition layer writes next to each field
// binary. Axes are explicit so irregular or descending grids round-trip.
type Meta struct {
	Unit      string    `json:"unit"`
	ValidDate string    `json:"valid_date"`
	Model     string    `json:"model,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	Lats      []float64 `json:"lats"`
	Lons      []float64 `json:"lons"`
}

// Load reads a field pair <base>.f64 + <base>_meta.json.
func Load(base string) (*Field, error) {
	metaData, err := os.ReadFile(base + MetaSuffix)
	if err != nil {
		return nil, fmt.Errorf("load field meta: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("load field meta: %w", err)
	}
	if len(meta.Lats) == 0 || len(meta.Lons) == 0 {
		return nil, fmt.Errorf("field meta %s has empty axes", base+MetaSuffix)
	}

	validDate, err := domain.ParseDate(meta.ValidDate)
	if err != nil {
		return nil, fmt.Errorf("load field meta: %w", err)
	}

	raw, err := os.ReadFile(base + BinSuffix)
	if err != nil {
		return nil, fmt.Errorf("load field: %w", err)
	}
	want := len(meta.Lats) * len(meta.Lons) * 8
	if len(raw) != want {
		return nil, fmt.Errorf("field binary is %d bytes, expected %d", len(raw), want)
	}

	values := make([][]float64, len(meta.Lats))
	off := 0
	for i := range values {
		row := make([]float64, len(meta.Lons))
		for j := range row {
			row[j] = math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
			off += 8
		}
		values[i] = row
	}

	return &Field{
		Lats:      meta.Lats,
		Lons:      meta.Lons,
		Values:    values,
		Unit:      meta.Unit,
		ValidDate: validDate,
		Model:     meta.Model,
		RunID:     meta.RunID,
	}, nil
}

// Save writes the field pair, used by fixture generation and tests.
func Save(f *Field, base string) error {
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return fmt.Errorf("save field: %w", err)
	}

	meta := Meta{
		Unit:      f.Unit,
		ValidDate: f.ValidDate.Format(domain.DateLayout),
		Model:     f.Model,
		RunID:     f.RunID,
		Lats:      f.Lats,
		Lons:      f.Lons,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("save field meta: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(base+MetaSuffix, data, 0o644); err != nil {
		return fmt.Errorf("save field meta: %w", err)
	}

	out, err := os.Create(base + BinSuffix)
	if err != nil {
		return fmt.Errorf("save field: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	buf := make([]byte, 8)
	for i := range f.Values {
		for _, v := range f.Values[i] {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			if _, err := w.Write(buf); err != nil {
				return fmt.Errorf("save field: %w", err)
			}
		}
	}
	return w.Flush()
}

// ListRun returns the base paths of all field pairs in a run directory,
// sorted by name. A field pair is any "<base>_meta.json" with its binary.
func ListRun(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list run %s: %w", dir, err)
	}

	var bases []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) <= len(MetaSuffix) || name[len(name)-len(MetaSuffix):] != MetaSuffix {
			continue
		}
		base := filepath.Join(dir, name[:len(name)-len(MetaSuffix)])
		if _, err := os.Stat(base + BinSuffix); err == nil {
			bases = append(bases, base)
		}
	}
	return bases, nil
}
