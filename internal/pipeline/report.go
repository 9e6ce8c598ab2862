package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/galehop/weather-desk/internal/domain"
)

// ReportModel is one model block of the desk report, assembled from the
// latest run's summary and that model's revision tracking.
type ReportModel struct {
	Model string
	RunID string
	Days  int

	AvgHDD    float64
	NormalHDD float64
	VsNormal  float64
	Signal    string
	Short     bool
	HasNormal bool

	RunChange string
	Streak    string
}

// BuildDeskReport renders the morning text block the desk reads first.
// Short runs stay visible but are flagged as excluded from the signal.
// Delivery is a caller concern; the report itself is plain text.
func BuildDeskReport(date time.Time, models []ReportModel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "WEATHER DESK -- %s\n", date.Format(domain.DateLayout))

	for _, m := range models {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%s | Run: %s\n", m.Model, m.RunID)
		if m.HasNormal {
			fmt.Fprintf(&b, "Avg HDD/day: %.1f | Normal: %.1f\n", m.AvgHDD, m.NormalHDD)
			fmt.Fprintf(&b, "vs Normal: %+.1f -- %s%s\n", m.VsNormal, m.Signal, shortNote(m))
		} else {
			fmt.Fprintf(&b, "Avg HDD/day: %.1f | Normal: n/a\n", m.AvgHDD)
			fmt.Fprintf(&b, "vs Normal: n/a -- %s%s\n", m.Signal, shortNote(m))
		}
		fmt.Fprintf(&b, "Run change: %s\n", m.RunChange)
		if m.Streak != "" {
			fmt.Fprintf(&b, "Streak: %s\n", m.Streak)
		}
	}
	return b.String()
}

func shortNote(m ReportModel) string {
	if !m.Short {
		return ""
	}
	return fmt.Sprintf(" (short run: %d days, excluded)", m.Days)
}
