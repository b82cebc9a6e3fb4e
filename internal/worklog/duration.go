package worklog

import (
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

func TotalDuration(intervals []Interval) time.Duration {
	var total time.Duration
	for _, i := range intervals {
		total += i.Duration()
	}
	return total
}

// Hours converts d to fractional hours for ledger submission.
func Hours(d time.Duration) float64 {
	return d.Hours()
}

// FormatDuration renders d as H:MM. Seconds are truncated and hours are not
// wrapped at a day.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + FormatDuration(-d)
	}
	totalMinutes := int64(d / time.Minute)
	return fmt.Sprintf("%d:%02d", totalMinutes/60, totalMinutes%60)
}

// SelectedDays lists every calendar day from start to end inclusive, using
// start's location for the day boundaries.
func SelectedDays(start, end time.Time) []string {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	last := end.In(start.Location())
	last = time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, start.Location())

	var days []string
	for !day.After(last) {
		days = append(days, day.Format(DayLayout))
		day = day.AddDate(0, 0, 1)
	}
	return days
}
