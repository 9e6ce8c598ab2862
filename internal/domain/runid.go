package domain

import (
	"fmt"
	"regexp"
	"time"
)

// runIDPattern matches the "YYYYMMDD_HH" run identifier format.
var runIDPattern = regexp.MustCompile(`^(\d{8})_(\d{2})$`)

// FormatRunID renders a model cycle as a run identifier, e.g. "20260115_06".
func FormatRunID(day time.Time, cycleHour int) string {
	return fmt.Sprintf("%s_%02d", day.UTC().Format("20060102"), cycleHour)
}

// ParseRunID extracts the cycle time from a run identifier.
func ParseRunID(id string) (time.Time, error) {
	m := runIDPattern.FindStringSubmatch(id)
	if m == nil {
		return time.Time{}, fmt.Errorf("malformed run id %q", id)
	}
	t, err := time.ParseInLocation("20060102_15", id, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed run id %q: %w", id, err)
	}
	return t, nil
}

// ValidRunID reports whether id has the "YYYYMMDD_HH" shape.
func ValidRunID(id string) bool {
	_, err := ParseRunID(id)
	return err == nil
}

// LatestExpectedRun returns the most recent run id for the given cycle hours
// that would have a complete publication by now. Published cycles lag the
// cycle time; lag is the publication delay to allow for.
func LatestExpectedRun(now time.Time, cycleHours []int, lag time.Duration) string {
	cutoff := now.UTC().Add(-lag)
	best := ""
	for dayOffset := 0; dayOffset <= 1; dayOffset++ {
		day := cutoff.AddDate(0, 0, -dayOffset)
		for _, h := range cycleHours {
			cycle := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, time.UTC)
			if cycle.After(cutoff) {
				continue
			}
			if id := FormatRunID(cycle, h); id > best {
				best = id
			}
		}
	}
	return best
}

// NowRunStamp returns the current time from the package clock, for
// computed_at fields on generated outputs.
func NowRunStamp() time.Time {
	return clock.Now().UTC()
}
