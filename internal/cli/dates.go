// Package cli holds small helpers shared by command implementations.
package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// relativeExpr matches "<n><unit>" with an optional trailing "ago",
// e.g. "2h ago", "30m", "1d ago", "2w", "1mo ago".
var relativeExpr = regexp.MustCompile(`^(\d+)(mo|w|d|h|m)(\s*ago)?$`)

// ParseRelativeTime turns a human time expression into a concrete
// time. Accepted forms: "2h ago", "30m", "yesterday", "today",
// "tomorrow", weekday names ("monday", "next tue", "this sat"),
// "2006-01-02", and RFC 3339.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}
	input := strings.ToLower(raw)

	switch input {
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	case "today":
		return startOfDay(now), nil
	case "tomorrow":
		return startOfDay(now).AddDate(0, 0, 1), nil
	}

	if t, ok := parseWeekday(input, now); ok {
		return t, nil
	}

	if m := relativeExpr.FindStringSubmatch(input); m != nil {
		value, err := strconv.Atoi(m[1])
		if err != nil || value < 1 {
			return time.Time{}, fmt.Errorf("invalid relative time %q", raw)
		}
		direction := 1
		if m[3] != "" {
			direction = -1
		}
		return shiftBy(now, direction*value, m[2])
	}

	if t, err := time.ParseInLocation("2006-01-02", raw, now.Location()); err == nil {
		return startOfDay(t), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid time expression %q", raw)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func shiftBy(now time.Time, amount int, unit string) (time.Time, error) {
	switch unit {
	case "mo":
		return now.AddDate(0, amount, 0), nil
	case "w":
		return now.Add(time.Duration(amount) * 7 * 24 * time.Hour), nil
	case "d":
		return now.Add(time.Duration(amount) * 24 * time.Hour), nil
	case "h":
		return now.Add(time.Duration(amount) * time.Hour), nil
	case "m":
		return now.Add(time.Duration(amount) * time.Minute), nil
	}
	return time.Time{}, fmt.Errorf("invalid relative time unit %q", unit)
}

// parseWeekday resolves expressions like "monday", "this sat", and
// "next tue" to the upcoming occurrence of that weekday. "next"
// skips today when the weekday matches; otherwise today counts.
func parseWeekday(expr string, now time.Time) (time.Time, bool) {
	input := strings.TrimSpace(expr)

	skipToday := false
	switch {
	case strings.HasPrefix(input, "next "):
		skipToday = true
		input = strings.TrimSpace(strings.TrimPrefix(input, "next "))
	case strings.HasPrefix(input, "this "):
		input = strings.TrimSpace(strings.TrimPrefix(input, "this "))
	}

	weekday, ok := weekdayNames[input]
	if !ok {
		return time.Time{}, false
	}

	base := startOfDay(now)
	delta := (int(weekday) - int(base.Weekday()) + 7) % 7
	if skipToday && delta == 0 {
		delta = 7
	}
	return base.AddDate(0, 0, delta), true
}

var weekdayNames = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"weds":      time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thur":      time.Thursday,
	"thurs":     time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}
