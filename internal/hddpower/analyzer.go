package hddpower

import (
	"math"
	"sort"

	"github.com/wardenlabs/warden/internal/prometheus"
)

// TimeShares holds the percentage of elapsed time a disk spent in each
// group over an observation window. Percentages are rounded to one decimal
// place and sum to 100.0 (subject to rounding) when any time elapsed.
type TimeShares struct {
	ActivePct  float64
	StandbyPct float64
	ErrorPct   float64
}

// PeriodStats summarizes one disk's behavior over a duration window.
type PeriodStats struct {
	ChangeCount int
	Shares      TimeShares
}

// CountGroupTransitions walks consecutive sample pairs and counts the
// group-level state changes. Sub-state fluctuation inside a group (idle_a to
// idle_b, for example) is not a transition. Returns 0 for fewer than two
// samples.
func CountGroupTransitions(samples []prometheus.SamplePair) int {
	count := 0
	for i := 1; i < len(samples); i++ {
		if Classify(codeOf(samples[i-1].Value)) != Classify(codeOf(samples[i].Value)) {
			count++
		}
	}
	return count
}

// TimeInState attributes the elapsed time between consecutive samples to the
// group of the earlier sample and returns per-group percentages. Fewer than
// two samples, or zero total duration, yields all-zero shares.
func TimeInState(samples []prometheus.SamplePair) TimeShares {
	if len(samples) < 2 {
		return TimeShares{}
	}

	totals := map[Group]float64{}
	total := 0.0
	for i := 1; i < len(samples); i++ {
		elapsed := samples[i].Timestamp - samples[i-1].Timestamp
		totals[Classify(codeOf(samples[i-1].Value))] += elapsed
		total += elapsed
	}
	if total <= 0 {
		return TimeShares{}
	}

	return TimeShares{
		ActivePct:  roundPct(totals[GroupActive] / total * 100),
		StandbyPct: roundPct(totals[GroupStandby] / total * 100),
		ErrorPct:   roundPct(totals[GroupError] / total * 100),
	}
}

func roundPct(pct float64) float64 {
	return math.Round(pct*10) / 10
}

// ensureSorted returns samples ordered ascending by timestamp. The metrics
// backend already returns them sorted; the backward transition search
// depends on that order, so it is verified rather than assumed.
func ensureSorted(samples []prometheus.SamplePair) []prometheus.SamplePair {
	sorted := true
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp < samples[i-1].Timestamp {
			sorted = false
			break
		}
	}
	if sorted {
		return samples
	}

	copied := make([]prometheus.SamplePair, len(samples))
	copy(copied, samples)
	sort.Slice(copied, func(i, j int) bool { return copied[i].Timestamp < copied[j].Timestamp })
	return copied
}
