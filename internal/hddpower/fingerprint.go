package hddpower

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wardenlabs/warden/internal/truenas"
)

// hexRunPattern matches contiguous hexadecimal runs of at least 8 characters.
// A disk's WWN or LUN ID always clears that bar; short hex-looking fragments
// in model names and partition labels do not.
var hexRunPattern = regexp.MustCompile(`[0-9a-fA-F]{8,}`)

// Fingerprint extracts the longest hexadecimal run of length >= 8 from an
// identifier string, lower-cased. The same physical disk yields the same
// fingerprint whether the input is a metrics device path
// ("/dev/disk/by-id/wwn-0x5000c500eb02b449") or a TrueNAS identifier
// ("{serial_lunid}WD-ABC_5000c500eb02b449"), which makes the fingerprint the
// join key between the two systems. Returns "" when no qualifying run
// exists. Ties between equal-length runs resolve to the first run found.
func Fingerprint(s string) string {
	best := ""
	for _, run := range hexRunPattern.FindAllString(s, -1) {
		if len(run) > len(best) {
			best = run
		}
	}
	return strings.ToLower(best)
}

// BuildDiskLookup indexes inventory disks by fingerprint. Disks whose
// identifier contains no qualifying hex run are skipped; on the (unexpected)
// event of a fingerprint collision the first disk wins.
func BuildDiskLookup(disks []truenas.Disk) map[string]truenas.Disk {
	lookup := make(map[string]truenas.Disk, len(disks))
	for _, disk := range disks {
		fingerprint := Fingerprint(disk.Identifier)
		if fingerprint == "" {
			continue
		}
		if _, exists := lookup[fingerprint]; exists {
			continue
		}
		lookup[fingerprint] = disk
	}
	return lookup
}

// FormatDiskName renders a disk for report output. With inventory data
// available it produces "name: model (size, serial=...)"; without it, it
// falls back to the last path segment of the metrics device identifier.
func FormatDiskName(disk *truenas.Disk, deviceID string) string {
	if disk != nil {
		return fmt.Sprintf("%s: %s (%s, serial=%s)",
			disk.Name, disk.Model, formatBytes(disk.SizeBytes), disk.Serial)
	}
	if idx := strings.LastIndex(deviceID, "/"); idx >= 0 {
		deviceID = deviceID[idx+1:]
	}
	return deviceID
}

// formatBytes converts a byte count to a binary-units human-readable string
// with one decimal place.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 4; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTP"[exp])
}
