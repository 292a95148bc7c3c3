package hddpower

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/wardenlabs/warden/internal/prometheus"
)

const testNowUnix = 1756500000

// scriptedQuerier serves canned range-query responses keyed by window size
// and records the sequence of windows queried.
type scriptedQuerier struct {
	instant      []prometheus.InstantSample
	instantErr   error
	instantCalls int

	byWindow map[time.Duration][]prometheus.Series
	rangeErr error

	queriedWindows []time.Duration
	steps          []time.Duration
}

func (q *scriptedQuerier) Query(ctx context.Context, query string) ([]prometheus.InstantSample, error) {
	q.instantCalls++
	return q.instant, q.instantErr
}

func (q *scriptedQuerier) QueryRange(ctx context.Context, query string, start, end float64, step time.Duration) ([]prometheus.Series, error) {
	window := time.Duration(end-start) * time.Second
	q.queriedWindows = append(q.queriedWindows, window)
	q.steps = append(q.steps, step)
	if q.rangeErr != nil {
		return nil, q.rangeErr
	}
	return q.byWindow[window], nil
}

func deviceSeries(device string, codes ...int) prometheus.Series {
	return prometheus.Series{
		Labels: map[string]string{"device": device, "pool": "tank"},
		Values: samplesFromCodes(codes...),
	}
}

func fixedNowLocator(q Querier) *Locator {
	return &Locator{
		querier: q,
		now:     func() time.Time { return time.Unix(testNowUnix, 0) },
	}
}

func TestFindTransitionWindowEarlyStop(t *testing.T) {
	querier := &scriptedQuerier{
		byWindow: map[time.Duration][]prometheus.Series{
			time.Hour:     {deviceSeries("/dev/sda", 2, 2, 2)},
			6 * time.Hour: {deviceSeries("/dev/sda", 0, 0, 2)},
		},
	}

	scan, err := fixedNowLocator(querier).FindTransitionWindow(context.Background(), `disk_power_state{type="hdd"}`)
	if err != nil {
		t.Fatalf("FindTransitionWindow() error = %v", err)
	}
	if scan == nil {
		t.Fatal("expected a window scan result")
	}
	if scan.Window != 6*time.Hour {
		t.Fatalf("expected the 6h window, got %s", scan.Window)
	}
	if scan.Counts["/dev/sda"] != 1 {
		t.Fatalf("unexpected counts: %+v", scan.Counts)
	}

	// Early stop: the 24h and 7d windows must never be queried.
	want := []time.Duration{time.Hour, 6 * time.Hour}
	if len(querier.queriedWindows) != len(want) {
		t.Fatalf("expected %d range queries, got %v", len(want), querier.queriedWindows)
	}
	for i, window := range want {
		if querier.queriedWindows[i] != window {
			t.Fatalf("query %d used window %s, want %s", i, querier.queriedWindows[i], window)
		}
	}
}

func TestFindTransitionWindowStepSelection(t *testing.T) {
	querier := &scriptedQuerier{byWindow: map[time.Duration][]prometheus.Series{}}

	if _, err := fixedNowLocator(querier).FindTransitionWindow(context.Background(), "q"); err != nil {
		t.Fatalf("FindTransitionWindow() error = %v", err)
	}

	wantSteps := []time.Duration{15 * time.Second, time.Minute, time.Minute, 5 * time.Minute}
	if len(querier.steps) != len(wantSteps) {
		t.Fatalf("expected %d queries, got %d", len(wantSteps), len(querier.steps))
	}
	for i, step := range wantSteps {
		if querier.steps[i] != step {
			t.Fatalf("window %d used step %s, want %s", i, querier.steps[i], step)
		}
	}
}

func TestFindTransitionWindowStableDisk(t *testing.T) {
	// All four windows report data but zero group transitions.
	stable := map[time.Duration][]prometheus.Series{}
	for _, window := range searchWindows {
		stable[window] = []prometheus.Series{deviceSeries("/dev/sda", 2, 3, 4, 2)}
	}
	querier := &scriptedQuerier{byWindow: stable}

	scan, err := fixedNowLocator(querier).FindTransitionWindow(context.Background(), "q")
	if err != nil {
		t.Fatalf("FindTransitionWindow() error = %v", err)
	}
	if scan != nil {
		t.Fatalf("expected nil scan for a stable disk, got %+v", scan)
	}
	if len(querier.queriedWindows) != 4 {
		t.Fatalf("expected all 4 windows queried, got %v", querier.queriedWindows)
	}
}

func TestFindTransitionWindowPropagatesQueryFailure(t *testing.T) {
	querier := &scriptedQuerier{rangeErr: fmt.Errorf("boom")}

	_, err := fixedNowLocator(querier).FindTransitionWindow(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error when the range query fails")
	}
}

func TestLocateExactFindsMostRecentTransition(t *testing.T) {
	// Two group transitions; the backward walk must report the later one
	// (standby -> active at the 4th sample) and ignore sub-state noise after it.
	series := deviceSeries("/dev/sda", 2, 0, 0, 2, 3, 4)
	querier := &scriptedQuerier{
		byWindow: map[time.Duration][]prometheus.Series{
			6 * time.Hour: {series},
		},
	}

	report, err := fixedNowLocator(querier).LocateExact(context.Background(), "q", 6*time.Hour)
	if err != nil {
		t.Fatalf("LocateExact() error = %v", err)
	}
	if len(report.Transitions) != 1 {
		t.Fatalf("expected 1 transition, got %+v", report.Transitions)
	}

	transition := report.Transitions[0]
	if transition.Device != "/dev/sda" {
		t.Fatalf("unexpected device %q", transition.Device)
	}
	if transition.FromCode != 0 || transition.ToCode != 2 {
		t.Fatalf("unexpected transition codes: %+v", transition)
	}
	if transition.Timestamp != series.Values[3].Timestamp {
		t.Fatalf("expected timestamp of the sample after the change, got %v", transition.Timestamp)
	}
	if len(report.Stable) != 0 {
		t.Fatalf("unexpected stable devices: %v", report.Stable)
	}
}

func TestLocateExactReportsStableDevicesSeparately(t *testing.T) {
	querier := &scriptedQuerier{
		byWindow: map[time.Duration][]prometheus.Series{
			24 * time.Hour: {
				deviceSeries("/dev/sda", 0, 0, 2),
				deviceSeries("/dev/sdb", 2, 3, 4),
			},
		},
	}

	report, err := fixedNowLocator(querier).LocateExact(context.Background(), "q", 24*time.Hour)
	if err != nil {
		t.Fatalf("LocateExact() error = %v", err)
	}
	if len(report.Transitions) != 1 || report.Transitions[0].Device != "/dev/sda" {
		t.Fatalf("unexpected transitions: %+v", report.Transitions)
	}
	if len(report.Stable) != 1 || report.Stable[0] != "/dev/sdb" {
		t.Fatalf("expected /dev/sdb reported stable, got %v", report.Stable)
	}
}

func TestWindowLabel(t *testing.T) {
	cases := map[time.Duration]string{
		time.Hour:           "1h",
		6 * time.Hour:       "6h",
		24 * time.Hour:      "24h",
		7 * 24 * time.Hour:  "7d",
		36 * time.Hour:      "36h",
		14 * 24 * time.Hour: "14d",
	}
	for window, want := range cases {
		if got := windowLabel(window); got != want {
			t.Errorf("windowLabel(%s) = %q, want %q", window, got, want)
		}
	}
}
