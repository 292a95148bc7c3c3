package tools

import (
	"context"
	"fmt"
	"strings"
)

// registerStorageTool registers the warden_storage tool.
func (e *Executor) registerStorageTool() {
	e.registry.Register(RegisteredTool{
		Definition: Tool{
			Name: "warden_storage",
			Description: `Get NAS storage inventory and health.

Types:
- disks: Physical disk inventory (model, serial, size, pool, standby timer)
- pools: Storage pool capacity and status
- system: NAS hostname, version, and uptime

Examples:
- List all disks: type="disks"
- Disks in one pool: type="disks", pool="tank"
- Pool capacity: type="pools"`,
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"type": {
						Type:        "string",
						Description: "Inventory type to query",
						Enum:        []string{"disks", "pools", "system"},
					},
					"pool": {
						Type:        "string",
						Description: "Filter disks by storage pool (for disks)",
					},
				},
				Required: []string{"type"},
			},
		},
		Handler: func(ctx context.Context, exec *Executor, args map[string]any) (CallToolResult, error) {
			return exec.executeStorage(ctx, args)
		},
	})
}

func (e *Executor) executeStorage(ctx context.Context, args map[string]any) (CallToolResult, error) {
	if e.storage == nil {
		return NewErrorResult(fmt.Errorf("storage inventory is not configured")), nil
	}

	inventoryType, _ := args["type"].(string)
	switch inventoryType {
	case "disks":
		return e.executeListDisks(ctx, args)
	case "pools":
		return e.executeGetPools(ctx)
	case "system":
		return e.executeGetSystemInfo(ctx)
	default:
		return NewErrorResult(fmt.Errorf("unknown type: %s. Use: disks, pools, system", inventoryType)), nil
	}
}

func (e *Executor) executeListDisks(ctx context.Context, args map[string]any) (CallToolResult, error) {
	disks, err := e.storage.ListDisks(ctx)
	if err != nil {
		return NewErrorResult(fmt.Errorf("list disks: %w", err)), nil
	}

	pool, _ := args["pool"].(string)
	pool = strings.TrimSpace(pool)

	type diskSummary struct {
		Name         string `json:"name"`
		Model        string `json:"model,omitempty"`
		Serial       string `json:"serial,omitempty"`
		Pool         string `json:"pool,omitempty"`
		Type         string `json:"type,omitempty"`
		SizeBytes    int64  `json:"sizeBytes"`
		StandbyTimer string `json:"standbyTimer,omitempty"`
	}

	summaries := make([]diskSummary, 0, len(disks))
	for _, disk := range disks {
		if pool != "" && disk.Pool != pool {
			continue
		}
		summaries = append(summaries, diskSummary{
			Name:         disk.Name,
			Model:        disk.Model,
			Serial:       disk.Serial,
			Pool:         disk.Pool,
			Type:         disk.Type,
			SizeBytes:    disk.SizeBytes,
			StandbyTimer: disk.StandbyTimer,
		})
	}
	if pool != "" && len(summaries) == 0 {
		return NewErrorResult(fmt.Errorf("no disks found in pool %q", pool)), nil
	}

	return NewJSONResult(map[string]any{
		"count": len(summaries),
		"disks": summaries,
	}), nil
}

func (e *Executor) executeGetPools(ctx context.Context) (CallToolResult, error) {
	pools, err := e.storage.GetPools(ctx)
	if err != nil {
		return NewErrorResult(fmt.Errorf("get pools: %w", err)), nil
	}

	type poolSummary struct {
		Name       string `json:"name"`
		Status     string `json:"status,omitempty"`
		TotalBytes int64  `json:"totalBytes"`
		UsedBytes  int64  `json:"usedBytes"`
		FreeBytes  int64  `json:"freeBytes"`
	}

	summaries := make([]poolSummary, 0, len(pools))
	for _, pool := range pools {
		summaries = append(summaries, poolSummary{
			Name:       pool.Name,
			Status:     pool.Status,
			TotalBytes: pool.TotalBytes,
			UsedBytes:  pool.UsedBytes,
			FreeBytes:  pool.FreeBytes,
		})
	}

	return NewJSONResult(map[string]any{
		"count": len(summaries),
		"pools": summaries,
	}), nil
}

func (e *Executor) executeGetSystemInfo(ctx context.Context) (CallToolResult, error) {
	info, err := e.storage.GetSystemInfo(ctx)
	if err != nil {
		return NewErrorResult(fmt.Errorf("get system info: %w", err)), nil
	}

	return NewJSONResult(map[string]any{
		"hostname":      info.Hostname,
		"version":       info.Version,
		"uptimeSeconds": info.UptimeSeconds,
	}), nil
}
