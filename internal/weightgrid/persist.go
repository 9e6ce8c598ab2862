package weightgrid

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// File suffixes for the persisted grid pair.
const (
	BinSuffix  = ".f64"
	MetaSuffix = "_meta.json"
)

// Meta is the JSON sidecar describing a persisted grid.
type Meta struct {
	LatMin        float64 `json:"lat_min"`
	LatMax        float64 `json:"lat_max"`
	LonMin        float64 `json:"lon_min"`
	LonMax        float64 `json:"lon_max"`
	Resolution    float64 `json:"resolution"`
	NLats         int     `json:"n_lats"`
	NLons         int     `json:"n_lons"`
	Convention    string  `json:"convention"`
	WeightFormula string  `json:"weight_formula"`
	Note          string  `json:"note"`
}

// Save writes the grid as <base>.f64 (row-major little-endian float64) with
// a <base>_meta.json sidecar.
func Save(g *Grid, base string, meta Meta) error {
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return fmt.Errorf("save grid: %w", err)
	}

	meta.NLats = len(g.Lats)
	meta.NLons = len(g.Lons)

	f, err := os.Create(base + BinSuffix)
	if err != nil {
		return fmt.Errorf("save grid: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	buf := make([]byte, 8)
	for i := range g.Values {
		for _, v := range g.Values[i] {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			if _, err := w.Write(buf); err != nil {
				return fmt.Errorf("save grid: %w", err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("save grid: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("save grid meta: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(base+MetaSuffix, data, 0o644); err != nil {
		return fmt.Errorf("save grid meta: %w", err)
	}
	return nil
}

// Load reads a grid pair written by Save. The axes are rebuilt from the
// sidecar geometry; a size mismatch between sidecar and binary is an error.
func Load(base string) (*Grid, Meta, error) {
	metaData, err := os.ReadFile(base + MetaSuffix)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("load grid meta: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, Meta{}, fmt.Errorf("load grid meta: %w", err)
	}

	lats := Axis(meta.LatMin, meta.LatMax, meta.Resolution)
	lons := Axis(meta.LonMin, meta.LonMax, meta.Resolution)
	if len(lats) != meta.NLats || len(lons) != meta.NLons {
		return nil, Meta{}, fmt.Errorf("grid meta inconsistent: axes %dx%d, declared %dx%d",
			len(lats), len(lons), meta.NLats, meta.NLons)
	}

	raw, err := os.ReadFile(base + BinSuffix)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("load grid: %w", err)
	}
	want := meta.NLats * meta.NLons * 8
	if len(raw) != want {
		return nil, Meta{}, fmt.Errorf("grid binary is %d bytes, expected %d", len(raw), want)
	}

	values := make([][]float64, meta.NLats)
	off := 0
	for i := range values {
		row := make([]float64, meta.NLons)
		for j := range row {
			row[j] = math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
			off += 8
		}
		values[i] = row
	}

	return &Grid{Lats: lats, Lons: lons, Values: values}, meta, nil
}
