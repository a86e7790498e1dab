// Package durations parses and formats the short duration strings used by moderation commands.
package durations

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MaxTimeout is the longest timeout the platform accepts
const MaxTimeout = 28 * 24 * time.Hour

// ErrInvalidDuration is returned for input that does not match the expected format
var ErrInvalidDuration = errors.New("invalid duration")

var (
	fullPattern   = regexp.MustCompile(`^(\d+)([smhd])$`)
	coarsePattern = regexp.MustCompile(`^(\d+)([hd])$`)
)

var units = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// Parse accepts "<n>s", "<n>m", "<n>h" or "<n>d" up to MaxTimeout
func Parse(input string) (time.Duration, error) {
	return parse(fullPattern, input)
}

// ParseCoarse accepts only hours or days ("12h", "3d"), as used by escalation rules
func ParseCoarse(input string) (time.Duration, error) {
	return parse(coarsePattern, input)
}

func parse(pattern *regexp.Regexp, input string) (time.Duration, error) {
	m := pattern.FindStringSubmatch(input)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, input)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, input)
	}
	unit := units[m[2]]
	if n > int64(MaxTimeout/unit) {
		return 0, fmt.Errorf("%w: %q exceeds 28d", ErrInvalidDuration, input)
	}
	return time.Duration(n) * unit, nil
}

// Format renders d using its largest whole unit: 90s -> "1m", 3h -> "3h", 2d -> "2d"
func Format(d time.Duration) string {
	seconds := int64(d / time.Second)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh", seconds/3600)
	default:
		return fmt.Sprintf("%dd", seconds/86400)
	}
}
