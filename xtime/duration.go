// Package xtime formats durations the way migration run logs want to show
// them to an operator, rather than Go's raw "2562047h47m16.854s" form.
package xtime

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration formats a duration into a short, human-friendly string such
// as "1h2m3s" or "450ms", rounding away precision finer than round.
func FormatDuration(d time.Duration, round time.Duration) string {
	if d == 0 {
		return "0s"
	}

	if round > 0 {
		d = d.Round(round)
		if d == 0 {
			return "0s"
		}
	}

	neg := d < 0
	if neg {
		d = -d
	}

	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 && round <= time.Second {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	if round < time.Second {
		if ms := d / time.Millisecond; ms > 0 && round <= time.Millisecond {
			parts = append(parts, fmt.Sprintf("%dms", ms))
		}
	}

	if len(parts) == 0 {
		parts = append(parts, "0s")
	}

	result := strings.Join(parts, "")
	if neg {
		result = "-" + result
	}

	return result
}
