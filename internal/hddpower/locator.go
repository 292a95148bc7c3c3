package hddpower

import (
	"context"
	"fmt"
	"time"

	"github.com/wardenlabs/warden/internal/prometheus"
)

// Querier is the metrics backend surface the power-state engine consumes.
// Implemented by *prometheus.Client.
type Querier interface {
	Query(ctx context.Context, query string) ([]prometheus.InstantSample, error)
	QueryRange(ctx context.Context, query string, start, end float64, step time.Duration) ([]prometheus.Series, error)
}

// searchWindows are the progressively widened lookback windows. Recent
// transitions are found with one cheap high-resolution query; only a disk
// that has been stable for days pays for the wide low-resolution scans.
var searchWindows = []time.Duration{
	time.Hour,
	6 * time.Hour,
	24 * time.Hour,
	7 * 24 * time.Hour,
}

// stepForWindow picks the range-query resolution for a lookback window.
func stepForWindow(window time.Duration) time.Duration {
	switch {
	case window <= time.Hour:
		return 15 * time.Second
	case window <= 24*time.Hour:
		return time.Minute
	default:
		return 5 * time.Minute
	}
}

// windowLabel renders a lookback window the way users write durations
// (1h, 6h, 24h, 7d).
func windowLabel(window time.Duration) string {
	if window > 24*time.Hour && window%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", window/(24*time.Hour))
	}
	return fmt.Sprintf("%dh", window/time.Hour)
}

// WindowScan is the outcome of a successful progressive search: the
// smallest window containing at least one group transition, with per-device
// transition counts.
type WindowScan struct {
	Window time.Duration
	Counts map[string]int
}

// Transition records the most recent group-level state change of one device
// within the located window.
type Transition struct {
	Device    string
	Timestamp float64
	FromCode  int
	ToCode    int
}

// TransitionReport is the result of pinpointing transitions inside a
// selected window. Devices that did not change group within the window are
// listed in Stable so that callers can distinguish "stable" from "data
// missing".
type TransitionReport struct {
	Window      time.Duration
	Transitions []Transition
	Stable      []string
}

// Locator finds the most recent group-level power transitions by widening
// the search window until one shows a change. The widening queries and the
// locate pass are inherently sequential; each depends on the previous
// result.
type Locator struct {
	querier Querier
	now     func() time.Time
}

// NewLocator creates a Locator over the given metrics backend.
func NewLocator(querier Querier) *Locator {
	return &Locator{querier: querier, now: time.Now}
}

// FindTransitionWindow walks the search windows in increasing order and
// returns the first one in which any device shows a group transition. A nil
// scan with nil error means no device changed group within the widest
// window: a valid terminal state, not a failure.
func (l *Locator) FindTransitionWindow(ctx context.Context, selector string) (*WindowScan, error) {
	end := float64(l.now().Unix())

	for _, window := range searchWindows {
		start := end - window.Seconds()
		series, err := l.querier.QueryRange(ctx, selector, start, end, stepForWindow(window))
		if err != nil {
			return nil, fmt.Errorf("scan %s window for power transitions: %w", windowLabel(window), err)
		}

		counts := make(map[string]int, len(series))
		found := false
		for _, s := range series {
			count := CountGroupTransitions(ensureSorted(s.Values))
			counts[deviceOf(s.Labels)] = count
			if count > 0 {
				found = true
			}
		}
		if found {
			return &WindowScan{Window: window, Counts: counts}, nil
		}
	}

	return nil, nil
}

// LocateExact re-queries the selected window and pinpoints, per device, the
// most recent pair of consecutive samples whose groups differ.
func (l *Locator) LocateExact(ctx context.Context, selector string, window time.Duration) (*TransitionReport, error) {
	end := float64(l.now().Unix())
	start := end - window.Seconds()

	series, err := l.querier.QueryRange(ctx, selector, start, end, stepForWindow(window))
	if err != nil {
		return nil, fmt.Errorf("pinpoint power transitions in %s window: %w", windowLabel(window), err)
	}

	report := &TransitionReport{Window: window}
	for _, s := range series {
		device := deviceOf(s.Labels)
		samples := ensureSorted(s.Values)

		found := false
		for i := len(samples) - 1; i >= 1; i-- {
			prev := codeOf(samples[i-1].Value)
			curr := codeOf(samples[i].Value)
			if Classify(prev) != Classify(curr) {
				report.Transitions = append(report.Transitions, Transition{
					Device:    device,
					Timestamp: samples[i].Timestamp,
					FromCode:  prev,
					ToCode:    curr,
				})
				found = true
				break
			}
		}
		if !found {
			report.Stable = append(report.Stable, device)
		}
	}

	return report, nil
}

func deviceOf(labels map[string]string) string {
	if device := labels["device"]; device != "" {
		return device
	}
	return labels["instance"]
}
