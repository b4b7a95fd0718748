package catalog

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// TimeAgo describes how long ago t was relative to now. A zero t yields
// "Recently".
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "Recently"
	}
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(float64(diff) / float64(day)))
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return plural(days, "day") + " ago"
	case days < 30:
		return plural(days/7, "week") + " ago"
	case days < 365:
		return plural(days/30, "month") + " ago"
	default:
		return plural(days/365, "year") + " ago"
	}
}

// DaysRemaining counts whole days until deadline, never below zero.
func DaysRemaining(deadline, now time.Time) int {
	if deadline.IsZero() {
		return 0
	}
	days := int(math.Ceil(float64(deadline.Sub(now)) / float64(day)))
	if days < 0 {
		return 0
	}
	return days
}
