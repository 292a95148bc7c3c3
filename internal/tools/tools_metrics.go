package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wardenlabs/warden/internal/hddpower"
)

const maxRangePoints = 500

// registerMetricsTool registers the warden_metrics tool.
func (e *Executor) registerMetricsTool() {
	e.registry.Register(RegisteredTool{
		Definition: Tool{
			Name: "warden_metrics",
			Description: `Run a raw PromQL query against the metrics backend.

Types:
- instant: Current value of each matching series
- range: Values over a window, sampled at a fixed step

Examples:
- Current disk states: type="instant", query="disk_power_state"
- CPU over 1h: type="range", query="node_load1", duration="1h"`,
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"type": {
						Type:        "string",
						Description: "Query type",
						Enum:        []string{"instant", "range"},
					},
					"query": {
						Type:        "string",
						Description: "PromQL expression",
					},
					"duration": {
						Type:        "string",
						Description: "Window for range queries: number with unit s, m, h, d, or w (default: 1h)",
						Default:     "1h",
					},
					"step": {
						Type:        "string",
						Description: "Sample step for range queries (default: chosen from the window)",
					},
				},
				Required: []string{"type", "query"},
			},
		},
		Handler: func(ctx context.Context, exec *Executor, args map[string]any) (CallToolResult, error) {
			return exec.executeMetrics(ctx, args)
		},
	})
}

func (e *Executor) executeMetrics(ctx context.Context, args map[string]any) (CallToolResult, error) {
	if e.metrics == nil {
		return NewErrorResult(fmt.Errorf("metrics backend is not configured")), nil
	}

	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return NewErrorResult(fmt.Errorf("query is required")), nil
	}

	queryType, _ := args["type"].(string)
	switch queryType {
	case "instant":
		return e.executeInstantQuery(ctx, query)
	case "range":
		return e.executeRangeQuery(ctx, query, args)
	default:
		return NewErrorResult(fmt.Errorf("unknown type: %s. Use: instant, range", queryType)), nil
	}
}

func (e *Executor) executeInstantQuery(ctx context.Context, query string) (CallToolResult, error) {
	samples, err := e.metrics.Query(ctx, query)
	if err != nil {
		return NewErrorResult(fmt.Errorf("query metrics: %w", err)), nil
	}

	type sampleSummary struct {
		Labels    map[string]string `json:"labels"`
		Value     string            `json:"value"`
		Timestamp float64           `json:"timestamp"`
	}

	summaries := make([]sampleSummary, 0, len(samples))
	for _, sample := range samples {
		summaries = append(summaries, sampleSummary{
			Labels:    sample.Labels,
			Value:     sample.Value,
			Timestamp: sample.Timestamp,
		})
	}

	return NewJSONResult(map[string]any{
		"count":   len(summaries),
		"samples": summaries,
	}), nil
}

func (e *Executor) executeRangeQuery(ctx context.Context, query string, args map[string]any) (CallToolResult, error) {
	durationArg, _ := args["duration"].(string)
	if strings.TrimSpace(durationArg) == "" {
		durationArg = "1h"
	}
	window, err := hddpower.ParseDuration(durationArg)
	if err != nil {
		return NewErrorResult(err), nil
	}

	step := window / maxRangePoints
	if step < 15*time.Second {
		step = 15 * time.Second
	}
	if stepArg, _ := args["step"].(string); strings.TrimSpace(stepArg) != "" {
		parsed, err := hddpower.ParseDuration(stepArg)
		if err != nil {
			return NewErrorResult(err), nil
		}
		step = parsed
	}

	end := float64(time.Now().Unix())
	start := end - window.Seconds()

	series, err := e.metrics.QueryRange(ctx, query, start, end, step)
	if err != nil {
		return NewErrorResult(fmt.Errorf("query metrics: %w", err)), nil
	}

	type seriesSummary struct {
		Labels map[string]string `json:"labels"`
		Values [][2]float64      `json:"values"`
	}

	summaries := make([]seriesSummary, 0, len(series))
	for _, entry := range series {
		values := make([][2]float64, 0, len(entry.Values))
		for _, pair := range entry.Values {
			values = append(values, [2]float64{pair.Timestamp, pair.Value})
		}
		summaries = append(summaries, seriesSummary{Labels: entry.Labels, Values: values})
	}

	return NewJSONResult(map[string]any{
		"count":  len(summaries),
		"series": summaries,
	}), nil
}
