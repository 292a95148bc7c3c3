package tools

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wardenlabs/warden/internal/grafana"
	"github.com/wardenlabs/warden/internal/loki"
	"github.com/wardenlabs/warden/internal/memory"
	"github.com/wardenlabs/warden/internal/prometheus"
	"github.com/wardenlabs/warden/internal/truenas"
)

// PowerStatusProvider builds the consolidated HDD power report.
// Implemented by *hddpower.Service.
type PowerStatusProvider interface {
	PowerStatusReport(ctx context.Context, duration, pool string) (string, error)
}

// StorageProvider supplies NAS inventory and alerts. Implemented by
// *truenas.Client.
type StorageProvider interface {
	GetSystemInfo(ctx context.Context) (*truenas.SystemInfo, error)
	ListDisks(ctx context.Context) ([]truenas.Disk, error)
	GetPools(ctx context.Context) ([]truenas.Pool, error)
	GetAlerts(ctx context.Context) ([]truenas.Alert, error)
}

// MetricsProvider runs raw PromQL queries. Implemented by *prometheus.Client.
type MetricsProvider interface {
	Query(ctx context.Context, query string) ([]prometheus.InstantSample, error)
	QueryRange(ctx context.Context, query string, start, end float64, step time.Duration) ([]prometheus.Series, error)
}

// LogProvider runs LogQL range queries. Implemented by *loki.Client.
type LogProvider interface {
	QueryRange(ctx context.Context, logQL string, start, end time.Time, limit int) ([]loki.Entry, error)
}

// AlertProvider supplies Grafana alerting state. Implemented by
// *grafana.Client.
type AlertProvider interface {
	GetFiringAlerts(ctx context.Context) ([]grafana.Alert, error)
	GetAlertRules(ctx context.Context) ([]grafana.AlertRule, error)
}

// MemoryProvider persists operator notes. Implemented by *memory.Store.
type MemoryProvider interface {
	Remember(ctx context.Context, category, content string) (memory.Note, error)
	Recall(ctx context.Context, category string, limit int) ([]memory.Note, error)
	Forget(ctx context.Context, id string) (bool, error)
}

// Executor wires the registered tools to their backend providers. Providers
// left nil keep the corresponding tools out of the tool list.
type Executor struct {
	registry     *ToolRegistry
	controlLevel ControlLevel

	power   PowerStatusProvider
	storage StorageProvider
	metrics MetricsProvider
	logs    LogProvider
	alerts  AlertProvider
	memory  MemoryProvider
}

// NewExecutor creates an executor with all tools registered. Attach
// providers with the Set methods before serving calls.
func NewExecutor(level ControlLevel) *Executor {
	e := &Executor{
		registry:     NewToolRegistry(),
		controlLevel: level,
	}
	e.registerTools()
	return e
}

// SetControlLevel changes the active control level.
func (e *Executor) SetControlLevel(level ControlLevel) {
	e.controlLevel = level
}

// SetPowerStatusProvider attaches the HDD power report builder.
func (e *Executor) SetPowerStatusProvider(provider PowerStatusProvider) {
	e.power = provider
}

// SetStorageProvider attaches the NAS inventory source.
func (e *Executor) SetStorageProvider(provider StorageProvider) {
	e.storage = provider
}

// SetMetricsProvider attaches the PromQL backend.
func (e *Executor) SetMetricsProvider(provider MetricsProvider) {
	e.metrics = provider
}

// SetLogProvider attaches the LogQL backend.
func (e *Executor) SetLogProvider(provider LogProvider) {
	e.logs = provider
}

// SetAlertProvider attaches the Grafana alerting source.
func (e *Executor) SetAlertProvider(provider AlertProvider) {
	e.alerts = provider
}

// SetMemoryProvider attaches the note store.
func (e *Executor) SetMemoryProvider(provider MemoryProvider) {
	e.memory = provider
}

// ListTools returns the tools available at the current control level with
// their providers attached.
func (e *Executor) ListTools() []Tool {
	definitions := e.registry.ListTools(e.controlLevel)
	available := make([]Tool, 0, len(definitions))
	for _, definition := range definitions {
		if e.isToolAvailable(definition.Name) {
			available = append(available, definition)
		}
	}
	return available
}

// ExecuteTool runs the named tool with the given arguments.
func (e *Executor) ExecuteTool(ctx context.Context, name string, args map[string]any) (CallToolResult, error) {
	log.Debug().Str("tool", name).Msg("Executing tool")
	return e.registry.Execute(ctx, e, name, args)
}

func (e *Executor) isToolAvailable(name string) bool {
	switch name {
	case "warden_hdd_power":
		return e.power != nil
	case "warden_storage":
		return e.storage != nil
	case "warden_metrics":
		return e.metrics != nil
	case "warden_logs":
		return e.logs != nil
	case "warden_alerts":
		return e.alerts != nil || e.storage != nil
	case "warden_memory", "warden_memory_write":
		return e.memory != nil
	default:
		return true
	}
}

func (e *Executor) registerTools() {
	e.registerHDDPowerTool()
	e.registerStorageTool()
	e.registerMetricsTool()
	e.registerLogsTool()
	e.registerAlertsTool()
	e.registerMemoryTool()
}
