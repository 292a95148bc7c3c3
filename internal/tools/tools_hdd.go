package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wardenlabs/warden/internal/hddpower"
)

// registerHDDPowerTool registers the warden_hdd_power tool.
func (e *Executor) registerHDDPowerTool() {
	e.registry.Register(RegisteredTool{
		Definition: Tool{
			Name: "warden_hdd_power",
			Description: `Get the power status of the NAS hard drives.

Reports which disks are currently spun up or in standby, how often each disk
changed power state over the requested period with active/standby/error time
shares, and when each disk last changed state.

Examples:
- Current status with 24h statistics: no arguments
- Weekly statistics: duration="7d"
- Single pool: pool="tank"`,
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"duration": {
						Type:        "string",
						Description: "Statistics window as a number with unit: s, m, h, d, or w (default: 24h)",
						Default:     hddpower.DefaultDuration,
					},
					"pool": {
						Type:        "string",
						Description: "Restrict the report to disks in this storage pool",
					},
				},
			},
		},
		Handler: func(ctx context.Context, exec *Executor, args map[string]any) (CallToolResult, error) {
			return exec.executeHDDPower(ctx, args)
		},
	})
}

func (e *Executor) executeHDDPower(ctx context.Context, args map[string]any) (CallToolResult, error) {
	if e.power == nil {
		return NewErrorResult(fmt.Errorf("hdd power reporting is not configured")), nil
	}

	duration, _ := args["duration"].(string)
	pool, _ := args["pool"].(string)

	report, err := e.power.PowerStatusReport(ctx, duration, pool)
	if err != nil {
		var usageErr *hddpower.UsageError
		if !errors.As(err, &usageErr) {
			log.Warn().Err(err).Msg("HDD power report failed")
		}
		return NewErrorResult(err), nil
	}
	return NewTextResult(report), nil
}
