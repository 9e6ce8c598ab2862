package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/galehop/weather-desk/internal/analysis"
	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/field"
	"github.com/galehop/weather-desk/internal/market"
	"github.com/galehop/weather-desk/internal/normals"
	"github.com/galehop/weather-desk/internal/runstore"
)

// Layout of the data directory. The acquisition layer writes per-run CSVs
// under one directory per model, disagreement feeds under families/<label>/,
// cropped temperature fields under fields/, and the station series and
// normals at the top level.
const (
	masterFile     = "master_tdd.csv"
	normalsFile    = "normals.csv"
	hubTempsFile   = "hub_temps.csv"
	windSpeedsFile = "wind_speeds.csv"
	familiesDir    = "families"
	fieldsDir      = "fields"
)

// modelDirs are the primary ledger directories under the data dir.
var modelDirs = []string{"gfs", "ecmwf", "open_meteo"}

func (d *Desk) dataPath(name string) string {
	return filepath.Join(d.cfg.DataDir, name)
}

func (d *Desk) outPath(name string) string {
	return filepath.Join(d.cfg.OutputDir, name)
}

// ingest loads the persisted master and every per-run CSV into the pass
// stores. Malformed rows are dropped and counted, unreadable files fail the
// stage, and a base-temperature mismatch on the master fails the pass.
func (d *Desk) ingest(p *pass) error {
	master, err := runstore.LoadMaster(d.dataPath(masterFile), d.cfg.Engine.BaseTempF)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First pass on a fresh data dir.
	case err != nil:
		return err
	default:
		p.store = master
	}

	sources, err := d.runSources()
	if err != nil {
		return err
	}
	feedSources, err := d.feedSources()
	if err != nil {
		return err
	}
	if len(sources) == 0 && len(feedSources) == 0 && p.store.Len() == 0 {
		return skipf("no run files under %s", d.cfg.DataDir)
	}

	report, err := p.store.Ingest(sources...)
	d.countIngest(report)
	if err != nil {
		return err
	}
	feedReport, err := p.feeds.Ingest(feedSources...)
	d.countIngest(feedReport)
	if err != nil {
		return err
	}

	d.logger.Info("ingest finished",
		"rows", report.Rows+feedReport.Rows,
		"duplicates", report.Duplicates+feedReport.Duplicates,
		"skipped", len(report.Skipped)+len(feedReport.Skipped),
		"ledger", p.store.Len(),
		"feeds", p.feeds.Len(),
	)
	return nil
}

func (d *Desk) countIngest(r runstore.IngestReport) {
	d.metrics.RecordsIngested.Add(float64(r.Rows))
	d.metrics.DuplicatesDropped.Add(float64(r.Duplicates))
	d.metrics.RowsSkipped.Add(float64(len(r.Skipped)))
	for _, row := range r.Skipped {
		d.logger.Warn("row skipped", "path", row.Path, "line", row.Line, "reason", row.Reason)
	}
}

func (d *Desk) runSources() ([]runstore.Source, error) {
	var sources []runstore.Source
	for _, dir := range modelDirs {
		paths, err := filepath.Glob(filepath.Join(d.cfg.DataDir, dir, "*.csv"))
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
		sort.Strings(paths)
		for _, p := range paths {
			sources = append(sources, runstore.Source{Path: p})
		}
	}
	return sources, nil
}

// feedSources lists the disagreement feeds. Feed directories are named
// after the model label, lowercased: families/aifs/, families/gfs_hres/.
func (d *Desk) feedSources() ([]runstore.Source, error) {
	root := d.dataPath(familiesDir)
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", familiesDir, err)
	}

	var sources []runstore.Source
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		model := strings.ToUpper(e.Name())
		paths, err := filepath.Glob(filepath.Join(root, e.Name(), "*.csv"))
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", familiesDir, err)
		}
		sort.Strings(paths)
		for _, p := range paths {
			sources = append(sources, runstore.Source{Path: p, Model: model})
		}
	}
	return sources, nil
}

// persistMaster writes the deduplicated ledger back to the data dir.
func (d *Desk) persistMaster(p *pass) error {
	if p.store.Len() == 0 {
		return skipf("ledger is empty")
	}
	return p.store.SaveMaster(d.dataPath(masterFile), d.cfg.Engine.BaseTempF)
}

// loadNormals reads the climatology table. Tables without gas-weighted
// columns get them derived from the monthly scale so downstream joins
// always have both variants.
func (d *Desk) loadNormals(p *pass) error {
	table, err := normals.Load(d.dataPath(normalsFile))
	if errors.Is(err, os.ErrNotExist) {
		return skipf("%s not present", normalsFile)
	}
	if err != nil {
		return err
	}

	if !anyGasWeighted(table) {
		table = table.DeriveGasWeighted(normals.DefaultMonthlyScale)
		d.logger.Info("normals carry no gas-weighted columns, derived from monthly scale")
	}
	p.table = table
	return nil
}

func anyGasWeighted(t *normals.Table) bool {
	for _, n := range t.Days() {
		if n.HasGW {
			return true
		}
	}
	return false
}

// compare joins the ledger to normals and summarizes each run against them.
func (d *Desk) compare(p *pass) error {
	if p.store.Len() == 0 {
		return skipf("ledger is empty")
	}
	if p.table == nil {
		return skipf("normals not loaded")
	}

	p.anoms, p.sums = d.comparator.Compare(p.store.Records(), p.table)
	for _, s := range p.sums {
		if s.Short {
			d.logger.Warn("short run excluded from signal",
				"model", s.Model, "run_id", s.RunID, "days", s.Days, "min_days", d.comparator.MinDays)
		}
	}

	if err := writeCSV(d.outPath(vsNormalOut), anomalyHeader, anomalyRows(p.anoms)); err != nil {
		return err
	}
	return writeCSV(d.outPath(summariesOut), summaryHeader, summaryRows(p.sums))
}

// deltas tracks run-to-run revisions per model: day-aligned changes between
// the two latest runs and whole-run totals with their consecutive changes.
func (d *Desk) deltas(p *pass) error {
	if p.store.Len() == 0 {
		return skipf("ledger is empty")
	}

	p.aligns = map[string]analysis.DayAlignment{}
	p.totals = map[string][]analysis.RunTotal{}

	var dayRows, changeRows [][]string
	for _, model := range p.store.Models() {
		align, err := analysis.DayAligned(p.store, model)
		switch {
		case errors.Is(err, analysis.ErrNotEnoughRuns):
			d.logger.Info("single run, no deltas yet", "model", model)
		case err != nil:
			return err
		default:
			p.aligns[model] = align
			dayRows = append(dayRows, deltaRows(align)...)
		}

		totals, err := analysis.RunAligned(p.store, model)
		if err != nil {
			return err
		}
		p.totals[model] = totals
		changeRows = append(changeRows, totalRows(totals)...)
	}

	if err := writeCSV(d.outPath(deltaOut), deltaHeader, dayRows); err != nil {
		return err
	}
	return writeCSV(d.outPath(runChangeOut), runChangeHeader, changeRows)
}

// disagree gauges how far the AI family sits from the physics family over
// the forecast days from today on.
func (d *Desk) disagree(p *pass) error {
	if p.feeds.Len() == 0 {
		return skipf("no family feeds under %s", familiesDir)
	}

	from := domain.Day(d.clock.Now())
	p.dis = market.Disagreement(p.feeds, d.families, from)
	if len(p.dis) == 0 {
		return skipf("family feeds have no days from %s on", from.Format(domain.DateLayout))
	}
	return writeCSV(d.outPath(disagreementOut), disagreementHeader, disagreementRows(p.dis))
}

// proxies derives the power-burn and wind gauges from the station series.
// Either series may be absent on its own; the stage skips only when both are.
func (d *Desk) proxies(p *pass) error {
	temps, err := market.LoadTemperatures(d.dataPath(hubTempsFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		d.logger.Warn("no hub temperatures, power burn proxy unavailable", "file", hubTempsFile)
	case err != nil:
		return err
	default:
		p.burn = market.PowerBurn(temps, d.burnHubs, d.cfg.Engine.BaseTempF)
		if err := writeCSV(d.outPath(powerBurnOut), powerBurnHeader, powerBurnRows(p.burn)); err != nil {
			return err
		}
	}

	speeds, err := market.LoadWindSpeeds(d.dataPath(windSpeedsFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		d.logger.Warn("no wind speeds, renewables proxy unavailable", "file", windSpeedsFile)
	case err != nil:
		return err
	default:
		p.wind = market.WindAnomaly(speeds, d.windHubs, d.cfg.Engine.WindDroughtMS)
		if err := writeCSV(d.outPath(windOut), windHeader, windRows(p.wind)); err != nil {
			return err
		}
	}

	if p.burn == nil && p.wind == nil {
		return skipf("no station series present")
	}
	return nil
}

// freezeOffs scans the latest GFS run's temperature fields for wellhead
// freeze risk in the producing basins.
func (d *Desk) freezeOffs(p *pass) error {
	bases, err := field.ListRun(d.dataPath(fieldsDir))
	if errors.Is(err, os.ErrNotExist) {
		return skipf("no field files under %s", fieldsDir)
	}
	if err != nil {
		return err
	}
	if len(bases) == 0 {
		return skipf("no field files under %s", fieldsDir)
	}

	var fields []*field.Field
	for _, base := range bases {
		f, err := field.Load(base)
		if err != nil {
			d.logger.Warn("field unreadable, skipping", "base", base, "error", err)
			continue
		}
		fields = append(fields, f)
	}

	latest := latestModelFields(fields, domain.ModelGFS)
	if len(latest) == 0 {
		return skipf("no %s fields for the freeze-off scan", domain.ModelGFS)
	}

	days := market.FreezeOffs(latest, d.basins)
	return writeCSV(d.outPath(freezeOffOut), freezeOffHeader(d.basins), freezeOffRows(days, d.basins))
}

// latestModelFields keeps the fields belonging to the newest run of model.
func latestModelFields(fields []*field.Field, model string) []*field.Field {
	run, found := "", false
	for _, f := range fields {
		if f.Model != model {
			continue
		}
		found = true
		if f.RunID > run {
			run = f.RunID
		}
	}
	if !found {
		return nil
	}

	var out []*field.Field
	for _, f := range fields {
		if f.Model == model && f.RunID == run {
			out = append(out, f)
		}
	}
	return out
}

// composite blends the gauges into the per-date score and, when a publisher
// is wired, hands the signals to it. Delivery failures do not fail the pass:
// the CSV is the system of record and the next pass retries.
func (d *Desk) composite(ctx context.Context, p *pass) error {
	if len(p.dis) == 0 && len(p.burn) == 0 {
		return skipf("no disagreement or power-burn days")
	}

	p.comp = market.Composite(p.dis, p.burn, p.wind)
	if err := writeCSV(d.outPath(compositeOut), compositeHeader, compositeRows(p.comp)); err != nil {
		return err
	}

	if d.publisher == nil || len(p.comp) == 0 {
		return nil
	}
	if err := d.publisher.PublishSignals(ctx, p.comp); err != nil {
		d.logger.Error("publish signals failed", "error", err, "signals", len(p.comp))
		d.metrics.PublishErrors.Inc()
		return nil
	}
	d.metrics.SignalsPublished.Add(float64(len(p.comp)))
	d.logger.Info("signals published", "signals", len(p.comp), "topic", d.cfg.KafkaSinkTopic)
	return nil
}

// season writes the shoulder-season crossover table and the cumulative
// winter tracking against the latest GFS run.
func (d *Desk) season(p *pass) error {
	if p.table == nil {
		return skipf("normals not loaded")
	}

	crossover := p.table.CrossoverCurves(normals.FallCrossover)
	if err := writeCSV(d.outPath(crossoverOut), crossoverHeader, crossoverRows(crossover)); err != nil {
		return err
	}

	records := p.store.LatestPerModel()[domain.ModelGFS]
	points := analysis.CumulativeSeason(records, p.table, analysis.WinterSeason)
	return writeCSV(d.outPath(seasonOut), seasonHeader, seasonRows(points))
}

// report renders the desk text for the latest run of every model.
func (d *Desk) report(p *pass) error {
	if len(p.sums) == 0 {
		return skipf("no run summaries")
	}

	models := d.reportModels(p)
	text := BuildDeskReport(domain.Day(d.clock.Now()), models)
	path := d.outPath(reportOut)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", reportOut, err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", reportOut, err)
	}
	d.logger.Info("desk report written", "path", path, "models", len(models))
	return nil
}

// reportModels assembles one report block per model from the latest run's
// summary and the revision tracking.
func (d *Desk) reportModels(p *pass) []ReportModel {
	var models []ReportModel
	for _, model := range p.store.Models() {
		latest, ok := p.store.LatestRun(model)
		if !ok {
			continue
		}
		sum, ok := findSummary(p.sums, model, latest)
		if !ok {
			continue
		}

		m := ReportModel{
			Model:     model,
			RunID:     latest,
			Days:      sum.Days,
			AvgHDD:    sum.ForecastHDDAvg,
			NormalHDD: sum.NormalHDDAvg,
			VsNormal:  sum.VsNormalHDD,
			Signal:    sum.Signal,
			Short:     sum.Short,
			HasNormal: sum.DaysWithNormal > 0,
			RunChange: "first run / no overlap",
		}
		if align, ok := p.aligns[model]; ok {
			if change, err := align.OverlapChange(); err == nil {
				m.RunChange = fmt.Sprintf("%+.2f HDDs", change)
			}
		}
		if totals := p.totals[model]; len(totals) >= 2 {
			m.Streak = analysis.StreakFor(totals).Describe()
		}
		models = append(models, m)
	}
	return models
}

func findSummary(sums []analysis.RunSummary, model, runID string) (analysis.RunSummary, bool) {
	for _, s := range sums {
		if s.Model == model && s.RunID == runID {
			return s, true
		}
	}
	return analysis.RunSummary{}, false
}
