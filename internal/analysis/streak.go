package analysis

import (
	"fmt"
	"strings"
)

const maxStreakArrows = 5

// Streak is a run of consecutive same-direction revisions ending at the
// latest run. Count is zero when the latest run left the total unchanged
// or has no predecessor.
type Streak struct {
	Model   string
	Count   int
	Latest  float64
	Bullish bool
}

// StreakFor walks run totals backward from the latest run, counting
// consecutive revisions in the same direction. Totals must be in run
// order, as RunAligned returns them.
func StreakFor(totals []RunTotal) Streak {
	if len(totals) == 0 {
		return Streak{}
	}

	latest := totals[len(totals)-1]
	s := Streak{Model: latest.Model, Latest: latest.Change, Bullish: latest.Change > 0}
	if !latest.HasPrev || latest.Change == 0 {
		return s
	}

	for i := len(totals) - 1; i >= 0; i-- {
		t := totals[i]
		if !t.HasPrev || t.Change == 0 || (t.Change > 0) != s.Bullish {
			break
		}
		s.Count++
	}
	return s
}

// Describe renders the streak for the desk report, e.g.
// "3rd consecutive bullish revision 🔺🔺🔺". Arrows cap at five.
func (s Streak) Describe() string {
	if s.Count == 0 {
		return "unchanged vs previous run"
	}

	label, arrow := "bullish revision", "🔺"
	if !s.Bullish {
		label, arrow = "bearish revision", "🔻"
	}

	n := s.Count
	if n > maxStreakArrows {
		n = maxStreakArrows
	}
	return fmt.Sprintf("%s consecutive %s %s", ordinal(s.Count), label, strings.Repeat(arrow, n))
}

func ordinal(n int) string {
	switch {
	case n%100 >= 11 && n%100 <= 13:
		return fmt.Sprintf("%dth", n)
	case n%10 == 1:
		return fmt.Sprintf("%dst", n)
	case n%10 == 2:
		return fmt.Sprintf("%dnd", n)
	case n%10 == 3:
		return fmt.Sprintf("%drd", n)
	default:
		return fmt.Sprintf("%dth", n)
	}
}
