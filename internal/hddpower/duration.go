package hddpower

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UsageError marks a failure caused by invalid tool input. The tool layer
// renders it as plain text for the caller instead of logging it as an
// internal error.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

var durationUnits = map[string]int64{
	"s": 1,
	"m": 60,
	"h": 3600,
	"d": 86400,
	"w": 604800,
}

// ParseDuration parses a duration string of the form "<n><unit>" where unit
// is one of s, m, h, d, w. Invalid or non-positive input returns a
// *UsageError; nothing reaches the network layer in that case.
func ParseDuration(s string) (time.Duration, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if len(trimmed) < 2 {
		return 0, invalidDuration(s)
	}

	unit := trimmed[len(trimmed)-1:]
	multiplier, ok := durationUnits[unit]
	if !ok {
		return 0, invalidDuration(s)
	}

	count, err := strconv.ParseInt(trimmed[:len(trimmed)-1], 10, 64)
	if err != nil || count <= 0 {
		return 0, invalidDuration(s)
	}

	return time.Duration(count*multiplier) * time.Second, nil
}

func invalidDuration(s string) error {
	return &UsageError{Message: fmt.Sprintf("invalid duration %q: use a positive number with a unit, e.g. 90m, 24h, 3d, 1w", s)}
}
