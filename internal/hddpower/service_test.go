package hddpower

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/wardenlabs/warden/internal/prometheus"
	"github.com/wardenlabs/warden/internal/truenas"
)

const (
	deviceA = "/dev/disk/by-id/wwn-0x5000c500eb02b449"
	deviceB = "/dev/disk/by-id/wwn-0x5000cca0bbf15c98"
)

type scriptedInventory struct {
	disks []truenas.Disk
	err   error
}

func (s *scriptedInventory) ListDisks(ctx context.Context) ([]truenas.Disk, error) {
	return s.disks, s.err
}

func testInventory() *scriptedInventory {
	return &scriptedInventory{
		disks: []truenas.Disk{
			{
				Identifier: "{serial_lunid}WD-ABC123_5000c500eb02b449",
				Name:       "sda",
				Model:      "WDC WD40EFRX",
				Serial:     "WD-ABC123",
				SizeBytes:  4000787030016,
				Pool:       "tank",
			},
			{
				Identifier: "{serial_lunid}ZGY4KLM9_5000cca0bbf15c98",
				Name:       "sdb",
				Model:      "ST4000VN008",
				Serial:     "ZGY4KLM9",
				SizeBytes:  4000787030016,
				Pool:       "tank",
			},
		},
	}
}

func instantSamples() []prometheus.InstantSample {
	return []prometheus.InstantSample{
		{Labels: map[string]string{"device": deviceA, "pool": "tank"}, Timestamp: testNowUnix, Value: "2"},
		{Labels: map[string]string{"device": deviceB, "pool": "tank"}, Timestamp: testNowUnix, Value: "0"},
	}
}

func fixedNowService(querier Querier, inventory InventoryProvider) *Service {
	service := NewService(querier, inventory)
	service.now = func() time.Time { return time.Unix(testNowUnix, 0) }
	return service
}

func TestPowerStatusReportEndToEnd(t *testing.T) {
	querier := &scriptedQuerier{
		instant: instantSamples(),
		byWindow: map[time.Duration][]prometheus.Series{
			// Stats window and progressive 24h window share this response.
			24 * time.Hour: {
				deviceSeries(deviceA, 0, 0, 2, 2, 2),
				deviceSeries(deviceB, 0, 0, 0, 0, 0),
			},
			time.Hour: {
				deviceSeries(deviceA, 2, 2, 2),
				deviceSeries(deviceB, 0, 0, 0),
			},
			6 * time.Hour: {
				deviceSeries(deviceA, 0, 0, 2),
				deviceSeries(deviceB, 0, 0, 0),
			},
		},
	}

	report, err := fixedNowService(querier, testInventory()).PowerStatusReport(context.Background(), "24h", "")
	if err != nil {
		t.Fatalf("PowerStatusReport() error = %v", err)
	}

	for _, want := range []string{
		"Spun up (1):",
		"In standby (1):",
		"sda: WDC WD40EFRX (3.6 TiB, serial=WD-ABC123) [active_or_idle]",
		"sdb: ST4000VN008 (3.6 TiB, serial=ZGY4KLM9) [standby]",
		"Behavior over the last 24h:",
		"1 state change",
		"active 50.0%, standby 50.0%, error 0.0%",
		"Most recent power state changes (within the last 6h):",
		"standby -> active_or_idle at",
		"sdb: ST4000VN008 (3.6 TiB, serial=ZGY4KLM9): no change in the last 6h",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n%s", want, report)
		}
	}
	if strings.Contains(report, deviceA) {
		t.Errorf("report should use inventory names, not raw device paths\n%s", report)
	}
}

func TestPowerStatusReportStableTerminalState(t *testing.T) {
	stable := map[time.Duration][]prometheus.Series{}
	for _, window := range searchWindows {
		stable[window] = []prometheus.Series{
			deviceSeries(deviceA, 2, 3, 4),
			deviceSeries(deviceB, 0, 0, 0),
		}
	}
	querier := &scriptedQuerier{instant: instantSamples(), byWindow: stable}

	report, err := fixedNowService(querier, testInventory()).PowerStatusReport(context.Background(), "24h", "")
	if err != nil {
		t.Fatalf("PowerStatusReport() error = %v", err)
	}
	if !strings.Contains(report, "No power state changes in the last 7d") {
		t.Fatalf("expected the stable terminal state, got:\n%s", report)
	}
	if strings.Contains(report, "Could not determine") {
		t.Fatalf("stable state must not render as a failure:\n%s", report)
	}
}

func TestPowerStatusReportDegradedInventory(t *testing.T) {
	querier := &scriptedQuerier{
		instant:  instantSamples(),
		byWindow: map[time.Duration][]prometheus.Series{},
	}
	inventory := &scriptedInventory{
		err: &url.Error{Op: "Get", URL: "https://nas/api/v2.0/disk", Err: errors.New("connection refused")},
	}

	report, err := fixedNowService(querier, inventory).PowerStatusReport(context.Background(), "24h", "")
	if err != nil {
		t.Fatalf("PowerStatusReport() must not fail on inventory errors, got %v", err)
	}

	// Device paths degrade to their last path segment.
	if !strings.Contains(report, "wwn-0x5000c500eb02b449 [active_or_idle]") {
		t.Errorf("expected shortened device identifier, got:\n%s", report)
	}
	if strings.Contains(report, "/dev/disk/by-id/") {
		t.Errorf("expected the by-id prefix stripped, got:\n%s", report)
	}
	if strings.Contains(report, "WDC") {
		t.Errorf("inventory names must be absent in degraded mode:\n%s", report)
	}
	if !strings.Contains(report, "Spun up (1):") || !strings.Contains(report, "In standby (1):") {
		t.Errorf("current state section must survive inventory failure:\n%s", report)
	}
}

func TestPowerStatusReportZeroSeriesIsHardFailure(t *testing.T) {
	querier := &scriptedQuerier{instant: nil}

	_, err := fixedNowService(querier, testInventory()).PowerStatusReport(context.Background(), "24h", "")
	if err == nil {
		t.Fatal("expected hard failure for zero series")
	}
	if !strings.Contains(err.Error(), "exporter") {
		t.Fatalf("error should point at the exporter, got: %v", err)
	}
}

func TestPowerStatusReportMetricsFailureModes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "http status",
			err:  &prometheus.APIError{StatusCode: 503, Path: "/api/v1/query"},
			want: "API error: HTTP 503",
		},
		{
			name: "timeout",
			err:  &url.Error{Op: "Get", URL: "http://prom/api/v1/query", Err: context.DeadlineExceeded},
			want: "timed out",
		},
		{
			name: "connect",
			err:  &url.Error{Op: "Get", URL: "http://prom/api/v1/query", Err: errors.New("connection refused")},
			want: "cannot connect",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			querier := &scriptedQuerier{instantErr: tc.err}
			_, err := fixedNowService(querier, testInventory()).PowerStatusReport(context.Background(), "24h", "")
			if err == nil {
				t.Fatal("expected hard failure")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got: %v", tc.want, err)
			}
		})
	}
}

func TestPowerStatusReportInvalidDuration(t *testing.T) {
	querier := &scriptedQuerier{instant: instantSamples()}

	_, err := fixedNowService(querier, testInventory()).PowerStatusReport(context.Background(), "soon", "")
	var usageErr *UsageError
	if !errors.As(err, &usageErr) {
		t.Fatalf("expected *UsageError, got %v", err)
	}
	if querier.instantCalls != 0 {
		t.Fatal("invalid duration must be rejected before any network call")
	}
}

func TestPowerStatusReportDefaultsDuration(t *testing.T) {
	querier := &scriptedQuerier{
		instant:  instantSamples(),
		byWindow: map[time.Duration][]prometheus.Series{},
	}

	report, err := fixedNowService(querier, testInventory()).PowerStatusReport(context.Background(), "", "")
	if err != nil {
		t.Fatalf("PowerStatusReport() error = %v", err)
	}
	if !strings.Contains(report, "Current state:") {
		t.Fatalf("unexpected report:\n%s", report)
	}
}

func TestPowerStatusReportPoolFilter(t *testing.T) {
	querier := &scriptedQuerier{instant: nil}

	_, err := fixedNowService(querier, testInventory()).PowerStatusReport(context.Background(), "24h", "vault")
	if err == nil || !strings.Contains(err.Error(), `"vault"`) {
		t.Fatalf("expected pool named in the zero-series error, got: %v", err)
	}
}

func TestBuildSelector(t *testing.T) {
	if got := buildSelector(""); got != `disk_power_state{type="hdd"}` {
		t.Fatalf("buildSelector(\"\") = %q", got)
	}
	if got := buildSelector("tank"); got != `disk_power_state{type="hdd", pool="tank"}` {
		t.Fatalf("buildSelector(\"tank\") = %q", got)
	}
}
