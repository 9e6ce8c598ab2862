// Command buildgrid builds the demand-weighted temperature grid from the
// anchor table and persists it as a binary pair for the aggregation layer.
// The grid only changes when the anchor table or geometry does, so it is
// built offline rather than on every pass.
//
// Usage:
//
//	go run ./cmd/buildgrid -out data/demand_grid -tables tables.yaml
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/galehop/weather-desk/internal/config"
	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/weightgrid"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/demand_grid", "output base path; writes <base>.f64 and <base>_meta.json")
	tablesPath := flag.String("tables", "", "anchor table YAML; empty uses the compiled-in table")
	top := flag.Int("top", 5, "number of top-weight cells to print")
	flag.Parse()

	tables, err := config.LoadTables(*tablesPath)
	if err != nil {
		return err
	}

	engine := config.DefaultEngine(domain.DefaultBaseTempF)
	spec := weightgrid.Spec{
		Region:     engine.Region,
		Resolution: engine.Resolution,
		SigmaLat:   engine.SigmaLat,
		SigmaLon:   engine.SigmaLon,
	}

	anchors := make([]weightgrid.Anchor, 0, len(tables.Anchors))
	for _, a := range tables.Anchors {
		anchors = append(anchors, weightgrid.Anchor{Lat: a.Lat, Lon: a.Lon, Weight: a.Weight()})
	}

	grid, err := weightgrid.Build(spec, anchors)
	if err != nil {
		return fmt.Errorf("build grid: %w", err)
	}

	meta := weightgrid.Meta{
		LatMin:        spec.Region.LatMin,
		LatMax:        spec.Region.LatMax,
		LonMin:        spec.Region.LonMin,
		LonMax:        spec.Region.LonMax,
		Resolution:    spec.Resolution,
		Convention:    "lon in 0-360",
		WeightFormula: "demand_bcf x hdd_30yr (Gaussian spread)",
		Note:          "Weights normalised to sum=1 across CONUS grid",
	}
	if err := weightgrid.Save(grid, *out, meta); err != nil {
		return err
	}

	nLats, nLons := grid.Shape()
	log.Printf("wrote %dx%d grid from %d anchors: %s%s", nLats, nLons, len(anchors), *out, weightgrid.BinSuffix)

	printStats(grid, *top)
	return nil
}

func printStats(grid *weightgrid.Grid, top int) {
	fmt.Println("\n=== Grid summary ===")
	fmt.Printf("Total weight: %.9f\n", grid.Sum())

	lat, lon, weight := grid.Peak()
	fmt.Printf("Peak cell: (%.2f, %.2f) weight %.6f\n", lat, lon, weight)

	fmt.Printf("Top %d cells:\n", top)
	for _, c := range grid.TopCells(top) {
		fmt.Printf("  (%.2f, %.2f)  %.6f\n", c.Lat, c.Lon, c.Weight)
	}
}
