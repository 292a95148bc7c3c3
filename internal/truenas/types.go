package truenas

import "time"

// SystemInfo holds high-level TrueNAS system identity data.
type SystemInfo struct {
	Hostname      string
	Version       string
	UptimeSeconds int64
}

// Disk is one entry from the TrueNAS disk inventory. The Identifier field is
// the opaque midclt identifier (e.g. "{serial_lunid}WD-ABC123_5000c500eb02b449")
// that embeds the disk's WWN or serial.
type Disk struct {
	Identifier   string
	Name         string
	Pool         string
	Model        string
	Serial       string
	SizeBytes    int64
	Type         string
	StandbyTimer string
}

// Pool is a storage pool summary.
type Pool struct {
	ID         string
	Name       string
	Status     string
	TotalBytes int64
	UsedBytes  int64
	FreeBytes  int64
}

// Alert is an active or dismissed TrueNAS alert.
type Alert struct {
	ID        string
	Level     string
	Message   string
	Source    string
	Dismissed bool
	Datetime  time.Time
}
