package pipeline

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/galehop/weather-desk/internal/analysis"
	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/market"
	"github.com/galehop/weather-desk/internal/normals"
)

// Output artifacts under the output dir, one per stage plus the desk text.
const (
	vsNormalOut     = "vs_normal.csv"
	summariesOut    = "run_summaries.csv"
	deltaOut        = "run_delta.csv"
	runChangeOut    = "run_change.csv"
	disagreementOut = "disagreement.csv"
	powerBurnOut    = "power_burn.csv"
	windOut         = "wind_generation.csv"
	freezeOffOut    = "freeze_offs.csv"
	compositeOut    = "composite_signal.csv"
	crossoverOut    = "seasonal_crossover.csv"
	seasonOut       = "cumulative_season.csv"
	reportOut       = "desk_report.txt"
)

var (
	anomalyHeader = []string{"date", "model", "run_id", "mean_temp", "tdd", "tdd_gw",
		"forecast_cdd", "hdd_normal", "cdd_normal", "hdd_normal_gw",
		"hdd_anomaly", "cdd_anomaly", "hdd_anomaly_gw", "dominant"}
	summaryHeader = []string{"model", "run_id", "forecast_hdd_avg", "normal_hdd_avg",
		"forecast_cdd_avg", "normal_cdd_avg", "forecast_hdd_avg_gw", "normal_hdd_avg_gw",
		"days", "days_with_normal", "vs_normal_hdd", "vs_normal_cdd", "vs_normal_hdd_gw",
		"signal", "short"}
	deltaHeader = []string{"model", "run_latest", "run_prev", "date",
		"tdd_latest", "tdd_prev", "tdd_change", "tdd_gw_change"}
	runChangeHeader = []string{"model", "run_id", "total_hdd", "total_hdd_gw",
		"change", "change_gw"}
	disagreementHeader = []string{"date", "physics_tdd", "ai_tdd",
		"disagreement_spread", "abs_spread", "volatility_score"}
	powerBurnHeader = []string{"date", "power_burn_proxy"}
	windHeader      = []string{"date", "wind_anomaly", "wind_signal"}
	compositeHeader = []string{"date", "master_tdd", "disagreement_spread",
		"volatility_score", "power_burn_proxy", "wind_anomaly",
		"composite_score", "market_bias"}
	crossoverHeader = []string{"month", "day", "hdd_30yr", "hdd_10yr", "cdd_30yr", "cdd_10yr"}
	seasonHeader    = []string{"month", "day", "normal_hdd", "cum_normal_hdd",
		"forecast_hdd", "cum_forecast_hdd"}
)

// writeCSV writes one output artifact, creating the directory on first use.
func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	w := csv.NewWriter(f)
	w.Write(header)
	for _, row := range rows {
		w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Values round once, here, at the point they are written.
func f1(v float64) string { return strconv.FormatFloat(domain.Round1(v), 'f', 1, 64) }
func f2(v float64) string { return strconv.FormatFloat(domain.Round2(v), 'f', 2, 64) }
func f0(v float64) string { return strconv.FormatFloat(math.Round(v), 'f', 0, 64) }

func dateCol(t time.Time) string { return t.Format(domain.DateLayout) }

func anomalyRows(recs []analysis.AnomalyRecord) [][]string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		row := []string{
			dateCol(r.Date), r.Model, r.RunID,
			f1(r.MeanTempF), f1(r.TDD), f1(r.TDDGW), f1(r.ForecastCDD),
			"", "", "", "", "", "", "",
		}
		if r.HasNormal {
			row[7] = f1(r.NormalHDD)
			row[8] = f1(r.NormalCDD)
			row[9] = f1(r.NormalHDDGW)
			row[10] = f1(r.HDDAnomaly)
			row[11] = f1(r.CDDAnomaly)
			row[12] = f1(r.HDDAnomalyGW)
			row[13] = f1(r.Dominant)
		}
		rows = append(rows, row)
	}
	return rows
}

func summaryRows(sums []analysis.RunSummary) [][]string {
	rows := make([][]string, 0, len(sums))
	for _, s := range sums {
		rows = append(rows, []string{
			s.Model, s.RunID,
			f1(s.ForecastHDDAvg), f1(s.NormalHDDAvg),
			f1(s.ForecastCDDAvg), f1(s.NormalCDDAvg),
			f1(s.ForecastHDDAvgGW), f1(s.NormalHDDAvgGW),
			strconv.Itoa(s.Days), strconv.Itoa(s.DaysWithNormal),
			f1(s.VsNormalHDD), f1(s.VsNormalCDD), f1(s.VsNormalHDDGW),
			s.Signal, strconv.FormatBool(s.Short),
		})
	}
	return rows
}

func deltaRows(a analysis.DayAlignment) [][]string {
	rows := make([][]string, 0, len(a.Days))
	for _, d := range a.Days {
		rows = append(rows, []string{
			a.Model, a.LatestRun, a.PrevRun, dateCol(d.Date),
			f1(d.Latest), f1(d.Prev), f1(d.Change), f1(d.ChangeGW),
		})
	}
	return rows
}

func totalRows(totals []analysis.RunTotal) [][]string {
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		change, changeGW := "", ""
		if t.HasPrev {
			change = f1(t.Change)
			changeGW = f1(t.ChangeGW)
		}
		rows = append(rows, []string{
			t.Model, t.RunID, f1(t.TotalHDD), f1(t.TotalHDDGW), change, changeGW,
		})
	}
	return rows
}

func disagreementRows(days []market.DisagreementDay) [][]string {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		physics, ai, spread, abs, vol := "", "", "", "", ""
		if d.HasPhysics {
			physics = f1(d.PhysicsMean)
		}
		if d.HasAI {
			ai = f1(d.AIMean)
		}
		if d.HasPhysics && d.HasAI {
			spread = f1(d.Spread)
			abs = f1(d.AbsSpread)
			vol = f1(d.Volatility)
		}
		rows = append(rows, []string{dateCol(d.Date), physics, ai, spread, abs, vol})
	}
	return rows
}

func powerBurnRows(days []market.ProxyDay) [][]string {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{dateCol(d.Date), f1(d.Value)})
	}
	return rows
}

func windRows(days []market.WindDay) [][]string {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{dateCol(d.Date), f1(d.Anomaly), d.Signal})
	}
	return rows
}

// freezeOffHeader depends on the configured basins: a min-temperature and a
// loss column per basin, then the national total.
func freezeOffHeader(basins []market.Basin) []string {
	header := []string{"date"}
	for _, b := range basins {
		header = append(header, b.Name+"_minF", b.Name+"_loss")
	}
	return append(header, "Total_US_FreezeOff_MMcfd")
}

func freezeOffRows(days []market.FreezeOffDay, basins []market.Basin) [][]string {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		row := []string{dateCol(d.Date)}
		for _, b := range basins {
			risk, ok := d.Basins[b.Name]
			if !ok || !risk.HasData {
				row = append(row, "", "")
				continue
			}
			row = append(row, f1(risk.MinF), f0(risk.Loss))
		}
		row = append(row, f0(d.TotalLoss))
		rows = append(rows, row)
	}
	return rows
}

func compositeRows(days []market.CompositeDay) [][]string {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			dateCol(d.Date),
			f1(d.MasterTDD), f1(d.Spread), f1(d.Volatility),
			f1(d.PowerBurn), f1(d.WindAnom),
			f2(d.Score), d.Bias,
		})
	}
	return rows
}

func crossoverRows(points []normals.CrossoverPoint) [][]string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			strconv.Itoa(p.Month), strconv.Itoa(p.Day),
			f1(p.HDD30), f1(p.HDD10), f1(p.CDD30), f1(p.CDD10),
		})
	}
	return rows
}

func seasonRows(points []analysis.SeasonPoint) [][]string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		forecast := ""
		if p.HasForecast {
			forecast = f1(p.ForecastHDD)
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Month), strconv.Itoa(p.Day),
			f1(p.NormalHDD), f1(p.CumulativeNormal),
			forecast, f1(p.CumulativeForecast),
		})
	}
	return rows
}
