// Package stats produces the dashboard usage figures: a zero-filled daily
// histogram, the lifetime total, and today's count.
package stats

import (
	"time"

	"github.com/promptforge/backend/internal/models"
)

// UsageWindowDays is the histogram window shown on the dashboard.
const UsageWindowDays = 7

// startOfDay truncates t to 00:00:00 in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dateKey is the calendar-date bucket key, matching the $dateToString
// format used by the aggregation.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// windowStart returns the first day of an N-day window ending at now.
func windowStart(now time.Time, days int) time.Time {
	return startOfDay(now).AddDate(0, 0, -(days - 1))
}

// FillDailyUsage expands sparse per-date buckets into a contiguous
// ascending sequence of exactly `days` entries ending on now's date. Days
// absent from buckets get count 0. Pure function of its inputs.
func FillDailyUsage(buckets map[string]int, now time.Time, days int) []models.DayCount {
	start := windowStart(now, days)

	usage := make([]models.DayCount, 0, days)
	for i := 0; i < days; i++ {
		date := dateKey(start.AddDate(0, 0, i))
		usage = append(usage, models.DayCount{
			Date:  date,
			Count: buckets[date],
		})
	}
	return usage
}
