// Package pipeline orchestrates the desk pass: ingest per-run CSVs, persist
// the master ledger, compare against normals, track run-to-run revisions,
// and blend the market gauges into the composite signal. Each stage consumes
// materialized inputs and writes materialized outputs; a stage whose inputs
// are not present yet skips with a warning and the pass carries on. A pass
// is single-threaded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/galehop/weather-desk/internal/analysis"
	"github.com/galehop/weather-desk/internal/config"
	"github.com/galehop/weather-desk/internal/market"
	"github.com/galehop/weather-desk/internal/normals"
	"github.com/galehop/weather-desk/internal/observability"
	"github.com/galehop/weather-desk/internal/runstore"
)

// ErrMissingInput marks a stage input that is not materialized yet. Stages
// wrap it with the concrete reason; the runner downgrades it to a skip.
var ErrMissingInput = errors.New("missing input")

// skipf builds a stage-skip error with the reason in front.
func skipf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrMissingInput)...)
}

// SignalPublisher delivers composite signals to an external sink.
type SignalPublisher interface {
	PublishSignals(ctx context.Context, signals []market.CompositeDay) error
}

// Desk runs the degree-day pipeline over a data directory.
type Desk struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	publisher SignalPublisher

	comparator analysis.Comparator
	families   market.Families
	burnHubs   []market.Hub
	windHubs   []market.Hub
	basins     []market.Basin

	ready atomic.Bool
}

// New wires a Desk from the service configuration and tables. publisher may
// be nil when Kafka publishing is disabled.
func New(cfg *config.Config, tables config.Tables, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, publisher SignalPublisher) *Desk {
	return &Desk{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		publisher: publisher,

		comparator: analysis.Comparator{
			BaseTempF:    cfg.Engine.BaseTempF,
			SummerMonths: cfg.Engine.SummerMonths,
			Threshold:    cfg.Engine.SignalThresholdHDD,
			MinDays:      cfg.Engine.MinForecastDays,
		},
		families: market.Families{
			Physics: tables.ModelFamilies.Physics,
			AI:      tables.ModelFamilies.AI,
		},
		burnHubs: hubsFromStations(tables.PowerBurnHubs),
		windHubs: hubsFromStations(tables.WindHubs),
		basins:   basinsFromTable(tables.FreezeBasins),
	}
}

func hubsFromStations(stations []config.Station) []market.Hub {
	hubs := make([]market.Hub, 0, len(stations))
	for _, s := range stations {
		hubs = append(hubs, market.Hub{Name: s.Name, Weight: s.Weight})
	}
	return hubs
}

func basinsFromTable(table []config.Basin) []market.Basin {
	basins := make([]market.Basin, 0, len(table))
	for _, b := range table {
		basins = append(basins, market.Basin{
			Name:       b.Name,
			Box:        b.Box,
			ThresholdF: b.ThresholdF,
			LossRate:   b.MMcfdPerDegree,
		})
	}
	return basins
}

// CheckReadiness returns nil once the desk has completed at least one pass,
// or an error describing why the service is not yet ready.
func (d *Desk) CheckReadiness(_ context.Context) error {
	if !d.ready.Load() {
		return errors.New("pipeline has not completed a pass yet")
	}
	return nil
}

// pass carries the artifacts one Run builds up as its stages execute.
type pass struct {
	store *runstore.Store // primary ledger: GFS / ECMWF / OPEN_METEO
	feeds *runstore.Store // disagreement family feeds, never persisted

	table *normals.Table

	anoms  []analysis.AnomalyRecord
	sums   []analysis.RunSummary
	aligns map[string]analysis.DayAlignment
	totals map[string][]analysis.RunTotal

	dis  []market.DisagreementDay
	burn []market.ProxyDay
	wind []market.WindDay
	comp []market.CompositeDay
}

// Run executes one pass over the data directory. When no model has a run
// newer than the recorded state the analytic stages are not rerun.
func (d *Desk) Run(ctx context.Context) error {
	start := time.Now()
	d.logger.Info("pass started", "data_dir", d.cfg.DataDir)

	state, err := loadState(d.cfg.StatePath)
	if err != nil {
		d.logger.Warn("state file unreadable, forcing a full pass", "error", err)
		state = runState{}
	}

	p := &pass{store: runstore.New(), feeds: runstore.New()}
	if err := d.runStage(ctx, "ingest", func() error { return d.ingest(p) }); err != nil {
		return err
	}

	latest := latestRuns(p.store, p.feeds)
	if maps.Equal(latest, state) {
		d.logger.Info("no new runs since last pass", "models", len(latest))
		d.metrics.PassesCompleted.Inc()
		d.ready.Store(true)
		return nil
	}

	stages := []struct {
		name string
		fn   func() error
	}{
		{"master", func() error { return d.persistMaster(p) }},
		{"normals", func() error { return d.loadNormals(p) }},
		{"compare", func() error { return d.compare(p) }},
		{"deltas", func() error { return d.deltas(p) }},
		{"disagreement", func() error { return d.disagree(p) }},
		{"proxies", func() error { return d.proxies(p) }},
		{"freeze_offs", func() error { return d.freezeOffs(p) }},
		{"composite", func() error { return d.composite(ctx, p) }},
		{"season", func() error { return d.season(p) }},
		{"report", func() error { return d.report(p) }},
	}
	for _, s := range stages {
		if err := d.runStage(ctx, s.name, s.fn); err != nil {
			return err
		}
	}

	if err := saveState(d.cfg.StatePath, latest); err != nil {
		return err
	}

	d.metrics.PassesCompleted.Inc()
	d.ready.Store(true)
	d.logger.Info("pass completed",
		"models", len(latest),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
	return nil
}

// Watch runs passes on the poll interval until the context is cancelled.
func (d *Desk) Watch(ctx context.Context) error {
	d.logger.Info("watch started", "interval", d.cfg.PollInterval.String())
	d.metrics.PipelineRunning.Set(1)
	defer d.metrics.PipelineRunning.Set(0)

	for {
		if err := d.Run(ctx); err != nil {
			if ctx.Err() != nil {
				d.logger.Info("watch stopping", "reason", ctx.Err())
				return nil
			}
			// Transient by assumption: the next poll retries from scratch.
			d.logger.Error("pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			d.logger.Info("watch stopping", "reason", ctx.Err())
			return nil
		case <-d.clock.After(d.cfg.PollInterval):
		}
	}
}

// runStage times a stage, records its outcome, and downgrades missing-input
// errors to skips so one absent feed never stops the rest of the pass.
func (d *Desk) runStage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := fn()
	d.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		d.metrics.StageRuns.WithLabelValues(name, "ok").Inc()
		return nil
	case errors.Is(err, ErrMissingInput):
		d.logger.Warn("stage skipped", "stage", name, "reason", err.Error())
		d.metrics.StageRuns.WithLabelValues(name, "skipped").Inc()
		return nil
	default:
		d.logger.Error("stage failed", "stage", name, "error", err)
		d.metrics.StageRuns.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("%s: %w", name, err)
	}
}

// latestRuns collects the newest run id per model across the given stores.
func latestRuns(stores ...*runstore.Store) runState {
	latest := runState{}
	for _, s := range stores {
		for _, model := range s.Models() {
			if run, ok := s.LatestRun(model); ok {
				latest[model] = run
			}
		}
	}
	return latest
}
