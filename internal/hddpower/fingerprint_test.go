package hddpower

import (
	"testing"

	"github.com/wardenlabs/warden/internal/truenas"
)

func TestFingerprintEquivalentAcrossSources(t *testing.T) {
	fromMetrics := Fingerprint("/dev/disk/by-id/wwn-0x5000c500eb02b449")
	fromInventory := Fingerprint("{serial_lunid}5000c500eb02b449")

	if fromMetrics != "5000c500eb02b449" {
		t.Fatalf("metrics fingerprint = %q", fromMetrics)
	}
	if fromInventory != fromMetrics {
		t.Fatalf("inventory fingerprint %q != metrics fingerprint %q", fromInventory, fromMetrics)
	}
}

func TestFingerprintMinimumLength(t *testing.T) {
	if got := Fingerprint("short-1234"); got != "" {
		t.Fatalf("expected empty fingerprint for a 4-char hex run, got %q", got)
	}
	if got := Fingerprint("no hex here"); got != "" {
		t.Fatalf("expected empty fingerprint, got %q", got)
	}
}

func TestFingerprintPicksLongestRun(t *testing.T) {
	// "deadbeef" (8 chars) and "5000c500eb02b449" (16 chars) both qualify.
	got := Fingerprint("ata-deadbeef-wwn-0x5000C500EB02B449")
	if got != "5000c500eb02b449" {
		t.Fatalf("expected the 16-char run, got %q", got)
	}
}

func TestFingerprintLowercasesResult(t *testing.T) {
	if got := Fingerprint("WWN-0X5000C500EB02B449"); got != "5000c500eb02b449" {
		t.Fatalf("unexpected fingerprint %q", got)
	}
}

func TestBuildDiskLookup(t *testing.T) {
	disks := []truenas.Disk{
		{Identifier: "{serial_lunid}WD-1_5000c500eb02b449", Name: "sda"},
		{Identifier: "no-hex-at-all", Name: "sdb"},
		{Identifier: "{serial_lunid}WD-2_5000c500eb02b449", Name: "sdc"}, // collision, first wins
	}

	lookup := BuildDiskLookup(disks)
	if len(lookup) != 1 {
		t.Fatalf("expected 1 lookup entry, got %d", len(lookup))
	}
	if lookup["5000c500eb02b449"].Name != "sda" {
		t.Fatalf("expected first disk to win the collision, got %+v", lookup["5000c500eb02b449"])
	}
}

func TestFormatDiskName(t *testing.T) {
	disk := &truenas.Disk{
		Name:      "sda",
		Model:     "WDC WD40EFRX",
		Serial:    "WD-ABC123",
		SizeBytes: 4000787030016,
	}
	got := FormatDiskName(disk, "/dev/disk/by-id/wwn-0x5000c500eb02b449")
	want := "sda: WDC WD40EFRX (3.6 TiB, serial=WD-ABC123)"
	if got != want {
		t.Fatalf("FormatDiskName() = %q, want %q", got, want)
	}
}

func TestFormatDiskNameFallback(t *testing.T) {
	got := FormatDiskName(nil, "/dev/disk/by-id/wwn-0x5000c500eb02b449")
	if got != "wwn-0x5000c500eb02b449" {
		t.Fatalf("expected shortened device path, got %q", got)
	}
	if got := FormatDiskName(nil, "sda"); got != "sda" {
		t.Fatalf("expected bare identifier passthrough, got %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{4000787030016, "3.6 TiB"},
		{3 << 50, "3.0 PiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.in); got != tc.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
