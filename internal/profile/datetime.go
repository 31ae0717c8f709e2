// Package profile - datetime column statistics.
package profile

import (
	"time"

	"synthtab/internal/table"
)

// datetimeStats computes the datetime statistic block, or nil when the
// column holds no non-null values.
func datetimeStats(c *table.Column) *DatetimeStats {
	times := make([]time.Time, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.Null {
			times = append(times, v.Time)
		}
	}
	if len(times) == 0 {
		return nil
	}

	min, max := times[0], times[0]
	hasTime := false
	hours := make([]int, 0, len(times))
	days := make([]int, 0, len(times))
	for _, ts := range times {
		if ts.Before(min) {
			min = ts
		}
		if ts.After(max) {
			max = ts
		}
		h, m, s := ts.Clock()
		if h != 0 || m != 0 || s != 0 || ts.Nanosecond() != 0 {
			hasTime = true
		}
		hours = append(hours, ts.Hour())
		days = append(days, mondayIndexed(ts.Weekday()))
	}

	return &DatetimeStats{
		Min:              min.UTC().Format(time.RFC3339),
		Max:              max.UTC().Format(time.RFC3339),
		RangeDays:        int(max.Sub(min).Hours() / 24),
		MostCommonHour:   mode(hours),
		MostCommonDay:    mode(days),
		HasTimeComponent: hasTime,
	}
}

// mondayIndexed maps Go weekdays (Sunday=0) to a Monday=0 index.
func mondayIndexed(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// mode returns the most frequent value; ties keep the first-seen value.
func mode(vals []int) int {
	counts := make(map[int]int, len(vals))
	order := make([]int, 0, len(vals))
	for _, v := range vals {
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	best, bestCount := 0, -1
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
