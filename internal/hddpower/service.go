package hddpower

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wardenlabs/warden/internal/prometheus"
	"github.com/wardenlabs/warden/internal/truenas"
)

// DefaultDuration is the statistics window used when the caller does not
// request one.
const DefaultDuration = "24h"

// InventoryProvider supplies the disk inventory used to translate raw
// metrics device paths into human-readable names. Implemented by
// *truenas.Client.
type InventoryProvider interface {
	ListDisks(ctx context.Context) ([]truenas.Disk, error)
}

// Service builds the consolidated HDD power status report. Every invocation
// queries the backends fresh; nothing is cached between calls.
type Service struct {
	metrics   Querier
	inventory InventoryProvider
	now       func() time.Time
}

// NewService creates the report builder over a metrics backend and a disk
// inventory source.
func NewService(metrics Querier, inventory InventoryProvider) *Service {
	return &Service{
		metrics:   metrics,
		inventory: inventory,
		now:       time.Now,
	}
}

// PowerStatusReport renders the multi-section power report for the requested
// statistics duration and optional pool filter.
//
// The current-state query is load-bearing: its failure (or an empty result)
// aborts the report. Everything else degrades: a failed inventory fetch
// falls back to raw device identifiers, a failed statistics query omits that
// section, and a failed transition search renders a placeholder line.
func (s *Service) PowerStatusReport(ctx context.Context, duration, pool string) (string, error) {
	if strings.TrimSpace(duration) == "" {
		duration = DefaultDuration
	}
	statsWindow, err := ParseDuration(duration)
	if err != nil {
		return "", err
	}

	selector := buildSelector(pool)

	current, err := s.metrics.Query(ctx, selector)
	if err != nil {
		return "", fmt.Errorf("disk power state query failed: %s", describeMetricsFailure(err))
	}
	if len(current) == 0 {
		if pool != "" {
			return "", fmt.Errorf("no disk_power_state series found for pool %q: check the pool name and that the disk power exporter labels its metrics with it", pool)
		}
		return "", errors.New(`no disk_power_state series found: check that the disk power exporter is running and exporting type="hdd" metrics`)
	}

	lookup := s.fetchDiskLookup(ctx)

	var report strings.Builder
	writeHeader(&report, pool)
	writeCurrentStates(&report, current, lookup)
	s.writePeriodStats(ctx, &report, selector, duration, statsWindow, lookup)
	s.writeTransitions(ctx, &report, selector, lookup)

	return strings.TrimRight(report.String(), "\n") + "\n", nil
}

// fetchDiskLookup builds the fingerprint index from the inventory. Inventory
// failures must never block the report, so they degrade to an empty lookup.
func (s *Service) fetchDiskLookup(ctx context.Context) map[string]truenas.Disk {
	if s.inventory == nil {
		return map[string]truenas.Disk{}
	}
	disks, err := s.inventory.ListDisks(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Disk inventory unavailable, falling back to raw device identifiers")
		return map[string]truenas.Disk{}
	}
	return BuildDiskLookup(disks)
}

func buildSelector(pool string) string {
	if strings.TrimSpace(pool) == "" {
		return `disk_power_state{type="hdd"}`
	}
	return fmt.Sprintf(`disk_power_state{type="hdd", pool=%q}`, pool)
}

func writeHeader(report *strings.Builder, pool string) {
	if strings.TrimSpace(pool) == "" {
		report.WriteString("HDD power status\n\n")
		return
	}
	fmt.Fprintf(report, "HDD power status (pool %s)\n\n", pool)
}

func writeCurrentStates(report *strings.Builder, current []prometheus.InstantSample, lookup map[string]truenas.Disk) {
	groups := map[Group][]string{}
	for _, sample := range current {
		device := deviceOf(sample.Labels)
		code := parseStateCode(sample.Value)
		line := fmt.Sprintf("  - %s [%s]", resolveDiskName(lookup, device), Label(code))
		group := Classify(code)
		groups[group] = append(groups[group], line)
	}

	report.WriteString("Current state:\n")
	writeGroup(report, "Spun up", groups[GroupActive])
	writeGroup(report, "In standby", groups[GroupStandby])
	writeGroup(report, "Other", groups[GroupError])
	report.WriteString("\n")
}

func writeGroup(report *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	sort.Strings(lines)
	fmt.Fprintf(report, "%s (%d):\n", title, len(lines))
	for _, line := range lines {
		report.WriteString(line + "\n")
	}
}

func (s *Service) writePeriodStats(ctx context.Context, report *strings.Builder, selector, duration string, window time.Duration, lookup map[string]truenas.Disk) {
	end := float64(s.now().Unix())
	start := end - window.Seconds()

	series, err := s.metrics.QueryRange(ctx, selector, start, end, stepForWindow(window))
	if err != nil {
		log.Warn().Err(err).Str("duration", duration).Msg("Power state statistics query failed, omitting section")
		return
	}

	lines := make([]string, 0, len(series))
	for _, entry := range series {
		samples := ensureSorted(entry.Values)
		stats := PeriodStats{
			ChangeCount: CountGroupTransitions(samples),
			Shares:      TimeInState(samples),
		}
		lines = append(lines, fmt.Sprintf("  - %s: %s, active %.1f%%, standby %.1f%%, error %.1f%%",
			resolveDiskName(lookup, deviceOf(entry.Labels)),
			pluralize(stats.ChangeCount, "state change", "state changes"),
			stats.Shares.ActivePct, stats.Shares.StandbyPct, stats.Shares.ErrorPct))
	}
	if len(lines) == 0 {
		return
	}
	sort.Strings(lines)

	fmt.Fprintf(report, "Behavior over the last %s:\n", duration)
	for _, line := range lines {
		report.WriteString(line + "\n")
	}
	report.WriteString("\n")
}

func (s *Service) writeTransitions(ctx context.Context, report *strings.Builder, selector string, lookup map[string]truenas.Disk) {
	locator := &Locator{querier: s.metrics, now: s.now}

	scan, err := locator.FindTransitionWindow(ctx, selector)
	if err != nil {
		log.Warn().Err(err).Msg("Progressive transition search failed")
		report.WriteString("Could not determine transition history.\n")
		return
	}
	if scan == nil {
		widest := windowLabel(searchWindows[len(searchWindows)-1])
		fmt.Fprintf(report, "No power state changes in the last %s; all disks have been stable for at least that long.\n", widest)
		return
	}

	located, err := locator.LocateExact(ctx, selector, scan.Window)
	if err != nil {
		log.Warn().Err(err).Msg("Transition pinpoint query failed")
		report.WriteString("Could not determine transition history.\n")
		return
	}

	label := windowLabel(scan.Window)
	fmt.Fprintf(report, "Most recent power state changes (within the last %s):\n", label)

	lines := make([]string, 0, len(located.Transitions)+len(located.Stable))
	for _, transition := range located.Transitions {
		when := time.Unix(int64(transition.Timestamp), 0).UTC().Format("2006-01-02 15:04:05 UTC")
		lines = append(lines, fmt.Sprintf("  - %s: %s -> %s at %s",
			resolveDiskName(lookup, transition.Device),
			Label(transition.FromCode), Label(transition.ToCode), when))
	}
	for _, device := range located.Stable {
		lines = append(lines, fmt.Sprintf("  - %s: no change in the last %s", resolveDiskName(lookup, device), label))
	}
	sort.Strings(lines)
	for _, line := range lines {
		report.WriteString(line + "\n")
	}
}

func resolveDiskName(lookup map[string]truenas.Disk, device string) string {
	if fingerprint := Fingerprint(device); fingerprint != "" {
		if disk, ok := lookup[fingerprint]; ok {
			return FormatDiskName(&disk, device)
		}
	}
	return FormatDiskName(nil, device)
}

// parseStateCode turns a raw instant-query value into a power-state code.
// Unparseable values land in the error group via CodeUnknown.
func parseStateCode(raw string) int {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return CodeUnknown
	}
	return codeOf(value)
}

func describeMetricsFailure(err error) string {
	var apiErr *prometheus.APIError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Sprintf("API error: HTTP %d", apiErr.StatusCode)
	case prometheus.IsTimeout(err):
		return "metrics backend timed out"
	case prometheus.IsConnectionError(err):
		return "cannot connect to the metrics backend"
	default:
		return err.Error()
	}
}

func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
