package main

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var relativeSinceRe = regexp.MustCompile(`^(\d+)([smhd])$`)

// parseSince accepts either a relative duration (<N> followed by s, m, h,
// or d) measured back from now, or an absolute timestamp (RFC3339 or
// "2006-01-02 15:04:05", taken as UTC).
func parseSince(spec string, now time.Time) (time.Time, error) {
	if m := relativeSinceRe.FindStringSubmatch(spec); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing since %q: %w", spec, err)
		}
		var unit time.Duration
		switch m[2] {
		case "s":
			unit = time.Second
		case "m":
			unit = time.Minute
		case "h":
			unit = time.Hour
		case "d":
			unit = 24 * time.Hour
		}
		return now.Add(-time.Duration(n) * unit), nil
	}

	if ts, err := time.Parse(time.RFC3339, spec); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", spec); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid since %q: want <N>[smhd] or an absolute timestamp", spec)
}
