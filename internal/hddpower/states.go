// Package hddpower reconciles disk power-state time series from a metrics
// backend with the TrueNAS disk inventory. It classifies raw power-state
// codes into coarse groups, counts group-level transitions while ignoring
// sub-state noise, computes time-weighted statistics over arbitrary windows,
// and locates the most recent true transition via progressive window
// widening.
package hddpower

import (
	"fmt"
	"math"
)

// Group is the coarse power-state classification used for transition
// counting. It is deliberately coarser than the raw exporter codes: idle
// sub-states all collapse into GroupActive so that fluctuation among them is
// never reported as a spin-up or spin-down.
type Group string

const (
	GroupActive  Group = "active"
	GroupStandby Group = "standby"
	GroupError   Group = "error"
)

// Raw power-state codes reported by the disk power exporter.
const (
	CodeError        = -2
	CodeUnknown      = -1
	CodeStandby      = 0
	CodeIdle         = 1
	CodeActiveOrIdle = 2
	CodeIdleA        = 3
	CodeIdleB        = 4
	CodeIdleC        = 5
	CodeActive       = 6
	CodeSleep        = 7
)

// stateLabels and stateGroups are fixed lookup tables; they are never
// mutated after init and are safe for concurrent reads.
var stateLabels = map[int]string{
	CodeError:        "error",
	CodeUnknown:      "unknown",
	CodeStandby:      "standby",
	CodeIdle:         "idle",
	CodeActiveOrIdle: "active_or_idle",
	CodeIdleA:        "idle_a",
	CodeIdleB:        "idle_b",
	CodeIdleC:        "idle_c",
	CodeActive:       "active",
	CodeSleep:        "sleep",
}

var stateGroups = map[int]Group{
	CodeIdle:         GroupActive,
	CodeActiveOrIdle: GroupActive,
	CodeIdleA:        GroupActive,
	CodeIdleB:        GroupActive,
	CodeIdleC:        GroupActive,
	CodeActive:       GroupActive,
	CodeStandby:      GroupStandby,
	CodeSleep:        GroupStandby,
	CodeError:        GroupError,
	CodeUnknown:      GroupError,
}

// Classify maps a raw power-state code to its group. Codes outside the known
// enumeration resolve to GroupError rather than failing.
func Classify(code int) Group {
	if group, ok := stateGroups[code]; ok {
		return group
	}
	return GroupError
}

// Label returns the human-readable name for a raw power-state code.
func Label(code int) string {
	if label, ok := stateLabels[code]; ok {
		return label
	}
	return fmt.Sprintf("unknown state (%d)", code)
}

// codeOf converts a raw sample value to its integer power-state code.
func codeOf(value float64) int {
	return int(math.Round(value))
}
