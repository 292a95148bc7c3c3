package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wardenlabs/warden/internal/hddpower"
)

const defaultLogLimit = 50

// registerLogsTool registers the warden_logs tool.
func (e *Executor) registerLogsTool() {
	e.registry.Register(RegisteredTool{
		Definition: Tool{
			Name: "warden_logs",
			Description: `Search NAS logs via LogQL, newest first.

Examples:
- smartd activity: query="{job=\"smartd\"}"
- Disk errors in the last day: query="{job=\"kernel\"} |= \"ata\"", duration="24h"`,
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"query": {
						Type:        "string",
						Description: "LogQL expression",
					},
					"duration": {
						Type:        "string",
						Description: "Lookback window: number with unit s, m, h, d, or w (default: 1h)",
						Default:     "1h",
					},
					"limit": {
						Type:        "integer",
						Description: "Maximum number of lines (default: 50)",
					},
				},
				Required: []string{"query"},
			},
		},
		Handler: func(ctx context.Context, exec *Executor, args map[string]any) (CallToolResult, error) {
			return exec.executeLogs(ctx, args)
		},
	})
}

func (e *Executor) executeLogs(ctx context.Context, args map[string]any) (CallToolResult, error) {
	if e.logs == nil {
		return NewErrorResult(fmt.Errorf("log backend is not configured")), nil
	}

	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return NewErrorResult(fmt.Errorf("query is required")), nil
	}

	durationArg, _ := args["duration"].(string)
	if strings.TrimSpace(durationArg) == "" {
		durationArg = "1h"
	}
	window, err := hddpower.ParseDuration(durationArg)
	if err != nil {
		return NewErrorResult(err), nil
	}

	limit := defaultLogLimit
	if raw, ok := args["limit"].(float64); ok && raw > 0 {
		limit = int(raw)
	}

	end := time.Now()
	entries, err := e.logs.QueryRange(ctx, query, end.Add(-window), end, limit)
	if err != nil {
		return NewErrorResult(fmt.Errorf("query logs: %w", err)), nil
	}

	if len(entries) == 0 {
		return NewTextResult(fmt.Sprintf("No log lines matched %s in the last %s.", query, durationArg)), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "%d log line%s (newest first):\n", len(entries), pluralSuffix(len(entries)))
	for _, entry := range entries {
		fmt.Fprintf(&out, "%s %s\n", entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Line)
	}
	return NewTextResult(out.String()), nil
}

func pluralSuffix(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
