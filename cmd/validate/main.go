// Command validate performs end-to-end integrity checks across the artifacts
// of a completed desk pass: the master ledger and its sidecar, the vs-normal
// table, the run summaries, and the composite signal. It verifies headers,
// key uniqueness, and the degree-day arithmetic the desk report quotes, with
// tolerances sized to the one-decimal rounding applied at each write boundary.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data -output-dir outputs
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/galehop/weather-desk/internal/analysis"
	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/market"
)

// summerMonths are the CDD-dominant months the anomaly table reports against.
var summerMonths = map[time.Month]bool{time.June: true, time.July: true, time.August: true}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "directory containing the master ledger")
	outputDir := flag.String("output-dir", "outputs", "directory containing pass artifacts")
	threshold := flag.Float64("threshold", 0.5, "vs-normal HDD band edge used for run signals")
	flag.Parse()

	if code := run(*dataDir, *outputDir, *threshold); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, outputDir string, threshold float64) int {
	fmt.Println("=== Desk Artifact Integrity Validation ===")
	fmt.Println()

	master, err := loadArtifact(filepath.Join(dataDir, "master_tdd.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load master ledger: %v\n", err)
		return 1
	}

	anomalies, err := loadOptional(filepath.Join(outputDir, "vs_normal.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load vs_normal.csv: %v\n", err)
		return 1
	}
	summaries, err := loadOptional(filepath.Join(outputDir, "run_summaries.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load run_summaries.csv: %v\n", err)
		return 1
	}
	composite, err := loadOptional(filepath.Join(outputDir, "composite_signal.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load composite_signal.csv: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateMasterLedger(master, filepath.Join(dataDir, "master_tdd_meta.json")),
		validateAnomalyArithmetic(anomalies),
		validateSummaryConsistency(summaries, anomalies, threshold),
		validateCompositeCoherence(composite),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Artifacts: %d master rows, %d anomaly rows, %d run summaries, %d composite days\n",
		len(master.rows), rowCount(anomalies), rowCount(summaries), rowCount(composite))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	lineNum int
	fields  map[string]string
}

// artifact holds one loaded CSV: its header in written order plus its rows.
type artifact struct {
	header []string
	rows   []csvRow
}

func loadArtifact(path string) (*artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no header in %s", path)
	}

	header := all[0]
	a := &artifact{header: header}
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		a.rows = append(a.rows, csvRow{lineNum: i + 2, fields: fields})
	}
	return a, nil
}

// loadOptional returns nil without error when the artifact does not exist;
// a pass may legitimately skip the stage that produces it.
func loadOptional(path string) (*artifact, error) {
	a, err := loadArtifact(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return a, err
}

func rowCount(a *artifact) int {
	if a == nil {
		return 0
	}
	return len(a.rows)
}

func checkHeader(p *phase, a *artifact, want []string) bool {
	if len(a.header) != len(want) {
		p.errorf("header has %d columns, expected %d: %v", len(a.header), len(want), a.header)
		return false
	}
	for i := range want {
		if a.header[i] != want[i] {
			p.errorf("header column %d is %q, expected %q", i, a.header[i], want[i])
			return false
		}
	}
	return true
}

// ── Phase 1: Master Ledger ──
// Validates the deduplicated ledger against its base-temperature sidecar.

func validateMasterLedger(master *artifact, metaPath string) *phase {
	p := &phase{name: "Phase 1: Master Ledger (keys and base)"}

	if !checkHeader(p, master, []string{"date", "mean_temp", "tdd", "mean_temp_gw", "tdd_gw", "model", "run_id"}) {
		return p
	}

	baseTemp, haveMeta := loadMasterMeta(p, metaPath, len(master.rows))

	seen := map[string]int{}
	for _, row := range master.rows {
		date := row.fields["date"]
		if _, err := domain.ParseDate(date); err != nil {
			p.errorf("line %d: bad date %q", row.lineNum, date)
			continue
		}

		key := date + "|" + row.fields["model"] + "|" + row.fields["run_id"]
		if prev, dup := seen[key]; dup {
			p.errorf("line %d: duplicate key %s (first seen line %d)", row.lineNum, key, prev)
		}
		seen[key] = row.lineNum

		meanTemp, ok1 := parseFloat(p, row, "mean_temp")
		tdd, ok2 := parseFloat(p, row, "tdd")
		if !ok1 || !ok2 {
			continue
		}
		if tdd < 0 {
			p.errorf("line %d: negative tdd %.1f", row.lineNum, tdd)
		}
		// Both cells round to one decimal independently.
		if haveMeta && !within(tdd, math.Abs(meanTemp-baseTemp), 0.11) {
			p.errorf("line %d: tdd %.1f does not match |%.1f - %.1f| = %.1f",
				row.lineNum, tdd, meanTemp, baseTemp, math.Abs(meanTemp-baseTemp))
		}

		gwTemp, gwTDD := row.fields["mean_temp_gw"], row.fields["tdd_gw"]
		if (gwTemp == "") != (gwTDD == "") {
			p.errorf("line %d: gas-weighted cells must be paired, got temp=%q tdd=%q",
				row.lineNum, gwTemp, gwTDD)
		}
	}
	return p
}

func loadMasterMeta(p *phase, path string, rows int) (float64, bool) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Println("  Note: master sidecar not present, base checks skipped")
		return 0, false
	}
	if err != nil {
		p.errorf("read sidecar: %v", err)
		return 0, false
	}

	var meta struct {
		BaseTempF float64 `json:"base_temp_f"`
		Rows      int     `json:"rows"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		p.errorf("parse sidecar: %v", err)
		return 0, false
	}
	if meta.BaseTempF <= 0 {
		p.errorf("sidecar base_temp_f %.1f is not positive", meta.BaseTempF)
		return 0, false
	}
	if meta.Rows != rows {
		p.errorf("sidecar declares %d rows, ledger has %d", meta.Rows, rows)
	}
	return meta.BaseTempF, true
}

// ── Phase 2: Anomaly Arithmetic ──
// Validates that each vs-normal row is internally consistent: anomaly cells
// equal forecast minus normal, and the dominant column follows the season.

func validateAnomalyArithmetic(anomalies *artifact) *phase {
	p := &phase{name: "Phase 2: Anomaly Arithmetic (vs_normal.csv)"}
	if anomalies == nil {
		fmt.Println("  Note: vs_normal.csv not present, phase skipped")
		return p
	}

	want := []string{"date", "model", "run_id", "mean_temp", "tdd", "tdd_gw",
		"forecast_cdd", "hdd_normal", "cdd_normal", "hdd_normal_gw",
		"hdd_anomaly", "cdd_anomaly", "hdd_anomaly_gw", "dominant"}
	if !checkHeader(p, anomalies, want) {
		return p
	}

	normalCols := []string{"hdd_normal", "cdd_normal", "hdd_normal_gw",
		"hdd_anomaly", "cdd_anomaly", "hdd_anomaly_gw", "dominant"}

	for _, row := range anomalies.rows {
		date, err := domain.ParseDate(row.fields["date"])
		if err != nil {
			p.errorf("line %d: bad date %q", row.lineNum, row.fields["date"])
			continue
		}

		filled := 0
		for _, col := range normalCols {
			if row.fields[col] != "" {
				filled++
			}
		}
		if filled == 0 {
			continue // no normal for this day
		}
		if filled != len(normalCols) {
			p.errorf("line %d: normal cells partially filled (%d of %d)", row.lineNum, filled, len(normalCols))
			continue
		}

		checkAnomalyRow(p, row)

		// Dominant cell is a verbatim copy of the seasonal anomaly cell.
		dominantFrom := "hdd_anomaly"
		if summerMonths[date.Month()] {
			dominantFrom = "cdd_anomaly"
		}
		if row.fields["dominant"] != row.fields[dominantFrom] {
			p.errorf("line %d: dominant %q should copy %s %q for %s",
				row.lineNum, row.fields["dominant"], dominantFrom, row.fields[dominantFrom], date.Month())
		}
	}
	return p
}

// checkAnomalyRow verifies anomaly = forecast - normal for all three pairs.
// Each term rounds to one decimal independently, so three roundings of slack.
func checkAnomalyRow(p *phase, row csvRow) {
	pairs := []struct{ anomaly, forecast, normal string }{
		{"hdd_anomaly", "tdd", "hdd_normal"},
		{"cdd_anomaly", "forecast_cdd", "cdd_normal"},
		{"hdd_anomaly_gw", "tdd_gw", "hdd_normal_gw"},
	}
	for _, pair := range pairs {
		anomaly, ok1 := parseFloat(p, row, pair.anomaly)
		forecast, ok2 := parseFloat(p, row, pair.forecast)
		normal, ok3 := parseFloat(p, row, pair.normal)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		if !within(anomaly, forecast-normal, 0.16) {
			p.errorf("line %d: %s %.1f does not match %s %.1f - %s %.1f",
				row.lineNum, pair.anomaly, anomaly, pair.forecast, forecast, pair.normal, normal)
		}
	}
}

// ── Phase 3: Summary Consistency ──
// Validates run summaries against the per-day anomaly rows they aggregate.

func validateSummaryConsistency(summaries, anomalies *artifact, threshold float64) *phase {
	p := &phase{name: "Phase 3: Summary Consistency (run_summaries.csv)"}
	if summaries == nil {
		fmt.Println("  Note: run_summaries.csv not present, phase skipped")
		return p
	}

	want := []string{"model", "run_id", "forecast_hdd_avg", "normal_hdd_avg",
		"forecast_cdd_avg", "normal_cdd_avg", "forecast_hdd_avg_gw", "normal_hdd_avg_gw",
		"days", "days_with_normal", "vs_normal_hdd", "vs_normal_cdd", "vs_normal_hdd_gw",
		"signal", "short"}
	if !checkHeader(p, summaries, want) {
		return p
	}

	groups := groupAnomalies(anomalies)

	for _, row := range summaries.rows {
		key := row.fields["model"] + "|" + row.fields["run_id"]

		days, ok1 := parseInt(p, row, "days")
		daysWithNormal, ok2 := parseInt(p, row, "days_with_normal")
		if !ok1 || !ok2 {
			continue
		}
		if days < 1 {
			p.errorf("line %d: run %s has %d days", row.lineNum, key, days)
			continue
		}
		if daysWithNormal > days {
			p.errorf("line %d: run %s has days_with_normal %d > days %d", row.lineNum, key, daysWithNormal, days)
		}

		if g, ok := groups[key]; ok {
			checkSummaryGroup(p, row, key, g, days, daysWithNormal)
		} else if anomalies != nil {
			p.errorf("line %d: run %s has no vs_normal rows", row.lineNum, key)
		}

		checkSummarySignal(p, row, key, daysWithNormal, threshold)

		if s := row.fields["short"]; s != "true" && s != "false" {
			p.errorf("line %d: short is %q, expected true or false", row.lineNum, s)
		}
	}
	return p
}

// anomalyGroup aggregates the vs_normal rows of one (model, run).
type anomalyGroup struct {
	days           int
	daysWithNormal int
	tddSum         float64
}

func groupAnomalies(anomalies *artifact) map[string]anomalyGroup {
	groups := map[string]anomalyGroup{}
	if anomalies == nil {
		return groups
	}
	for _, row := range anomalies.rows {
		key := row.fields["model"] + "|" + row.fields["run_id"]
		g := groups[key]
		g.days++
		if row.fields["hdd_normal"] != "" {
			g.daysWithNormal++
		}
		if tdd, err := strconv.ParseFloat(row.fields["tdd"], 64); err == nil {
			g.tddSum += tdd
		}
		groups[key] = g
	}
	return groups
}

func checkSummaryGroup(p *phase, row csvRow, key string, g anomalyGroup, days, daysWithNormal int) {
	if g.days != days {
		p.errorf("line %d: run %s declares %d days, vs_normal has %d rows", row.lineNum, key, days, g.days)
		return
	}
	if g.daysWithNormal != daysWithNormal {
		p.errorf("line %d: run %s declares %d days_with_normal, vs_normal has %d",
			row.lineNum, key, daysWithNormal, g.daysWithNormal)
	}

	forecastAvg, ok := parseFloat(p, row, "forecast_hdd_avg")
	if !ok {
		return
	}
	// The summary averages full-precision values; the per-day cells round first.
	if !within(forecastAvg, g.tddSum/float64(g.days), 0.11) {
		p.errorf("line %d: run %s forecast_hdd_avg %.1f does not match vs_normal mean %.2f",
			row.lineNum, key, forecastAvg, g.tddSum/float64(g.days))
	}

	if daysWithNormal > 0 {
		normalAvg, ok1 := parseFloat(p, row, "normal_hdd_avg")
		vsNormal, ok2 := parseFloat(p, row, "vs_normal_hdd")
		if ok1 && ok2 && !within(vsNormal, forecastAvg-normalAvg, 0.16) {
			p.errorf("line %d: run %s vs_normal_hdd %.1f does not match %.1f - %.1f",
				row.lineNum, key, vsNormal, forecastAvg, normalAvg)
		}
	}
}

// checkSummarySignal flags labels the rounded vs-normal value cannot support.
// The full-precision value sits within 0.05 of the cell, so only clear
// violations count.
func checkSummarySignal(p *phase, row csvRow, key string, daysWithNormal int, threshold float64) {
	signal := row.fields["signal"]
	if daysWithNormal == 0 {
		if signal != analysis.SignalNeutral {
			p.errorf("line %d: run %s has no normals but signal %q", row.lineNum, key, signal)
		}
		return
	}

	vs, ok := parseFloat(p, row, "vs_normal_hdd")
	if !ok {
		return
	}
	const slop = 0.06
	switch signal {
	case analysis.SignalBullish:
		if vs <= threshold-slop {
			p.errorf("line %d: run %s is BULLISH with vs_normal_hdd %.1f (threshold %.2f)", row.lineNum, key, vs, threshold)
		}
	case analysis.SignalBearish:
		if vs >= -threshold+slop {
			p.errorf("line %d: run %s is BEARISH with vs_normal_hdd %.1f (threshold %.2f)", row.lineNum, key, vs, threshold)
		}
	case analysis.SignalNeutral:
		if vs > threshold+slop || vs < -threshold-slop {
			p.errorf("line %d: run %s is NEUTRAL with vs_normal_hdd %.1f (threshold %.2f)", row.lineNum, key, vs, threshold)
		}
	default:
		p.errorf("line %d: run %s has unknown signal %q", row.lineNum, key, signal)
	}
}

// ── Phase 4: Composite Coherence ──
// Validates the published signal: bounded scores, exact bias banding, and
// strictly ascending dates.

func validateCompositeCoherence(composite *artifact) *phase {
	p := &phase{name: "Phase 4: Composite Coherence (signal bands)"}
	if composite == nil {
		fmt.Println("  Note: composite_signal.csv not present, phase skipped")
		return p
	}

	want := []string{"date", "master_tdd", "disagreement_spread", "volatility_score",
		"power_burn_proxy", "wind_anomaly", "composite_score", "market_bias"}
	if !checkHeader(p, composite, want) {
		return p
	}

	var prevDate string
	for _, row := range composite.rows {
		date := row.fields["date"]
		if _, err := domain.ParseDate(date); err != nil {
			p.errorf("line %d: bad date %q", row.lineNum, date)
			continue
		}
		if prevDate != "" && date <= prevDate {
			p.errorf("line %d: date %s not after %s", row.lineNum, date, prevDate)
		}
		prevDate = date

		if tdd, ok := parseFloat(p, row, "master_tdd"); ok && tdd < 0 {
			p.errorf("line %d: negative master_tdd %.1f", row.lineNum, tdd)
		}

		score, ok := parseFloat(p, row, "composite_score")
		if !ok {
			continue
		}
		if score < -1 || score > 1 {
			p.errorf("line %d: composite_score %.2f outside [-1, 1]", row.lineNum, score)
			continue
		}
		// The score is rounded before banding, so the written cell carries
		// the exact value the bias was derived from.
		if want := biasFor(score); row.fields["market_bias"] != want {
			p.errorf("line %d: score %.2f should band to %q, got %q",
				row.lineNum, score, want, row.fields["market_bias"])
		}
	}
	return p
}

func biasFor(score float64) string {
	switch {
	case score > 0.5:
		return market.BiasStrongBull
	case score > 0.1:
		return market.BiasBullish
	case score < -0.5:
		return market.BiasStrongBear
	case score < -0.1:
		return market.BiasBearish
	}
	return market.BiasNeutral
}

// ── Helpers ──

func parseFloat(p *phase, row csvRow, col string) (float64, bool) {
	v, err := strconv.ParseFloat(row.fields[col], 64)
	if err != nil {
		p.errorf("line %d: bad %s %q", row.lineNum, col, row.fields[col])
		return 0, false
	}
	return v, true
}

func parseInt(p *phase, row csvRow, col string) (int, bool) {
	v, err := strconv.Atoi(row.fields[col])
	if err != nil {
		p.errorf("line %d: bad %s %q", row.lineNum, col, row.fields[col])
		return 0, false
	}
	return v, true
}

func within(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
