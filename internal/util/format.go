// Package util hosts small formatting helpers shared by the HTTP views and the CLI.
package util //nolint:revive // package name util hosts shared formatting helpers

import (
	"fmt"
	"time"
)

// HumanizeTime renders a Unix-seconds timestamp relative to now, e.g. "3 hours ago".
// Months are 30 days and years 365 days. Timestamps in the future report "0 seconds ago".
func HumanizeTime(unix int64, now time.Time) string {
	seconds := now.Unix() - unix
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case seconds < 60:
		return plural(seconds, "seconds")
	case minutes < 60:
		return plural(minutes, "minutes")
	case hours < 24:
		return plural(hours, "hours")
	case days < 7:
		return plural(days, "days")
	case days/7 < 4:
		return plural(days/7, "weeks")
	case days/30 < 12:
		return plural(days/30, "months")
	default:
		return plural(days/365, "years")
	}
}

func plural(n int64, unit string) string {
	return fmt.Sprintf("%d %s ago", n, unit)
}
