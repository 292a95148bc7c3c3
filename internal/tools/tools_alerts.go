package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// registerAlertsTool registers the warden_alerts tool.
func (e *Executor) registerAlertsTool() {
	e.registry.Register(RegisteredTool{
		Definition: Tool{
			Name: "warden_alerts",
			Description: `Get active alerts from Grafana and the NAS.

Types:
- firing: Alerts currently active in Grafana and on the NAS
- rules: Provisioned Grafana alert rules

Examples:
- What is alerting right now: type="firing"
- Review configured rules: type="rules"`,
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]PropertySchema{
					"type": {
						Type:        "string",
						Description: "Alert data to query",
						Enum:        []string{"firing", "rules"},
						Default:     "firing",
					},
				},
			},
		},
		Handler: func(ctx context.Context, exec *Executor, args map[string]any) (CallToolResult, error) {
			return exec.executeAlerts(ctx, args)
		},
	})
}

func (e *Executor) executeAlerts(ctx context.Context, args map[string]any) (CallToolResult, error) {
	alertType, _ := args["type"].(string)
	if strings.TrimSpace(alertType) == "" {
		alertType = "firing"
	}

	switch alertType {
	case "firing":
		return e.executeFiringAlerts(ctx)
	case "rules":
		return e.executeAlertRules(ctx)
	default:
		return NewErrorResult(fmt.Errorf("unknown type: %s. Use: firing, rules", alertType)), nil
	}
}

// executeFiringAlerts merges Grafana and NAS alerts. One source failing
// degrades the answer rather than failing it, as long as the other responds.
func (e *Executor) executeFiringAlerts(ctx context.Context) (CallToolResult, error) {
	if e.alerts == nil && e.storage == nil {
		return NewErrorResult(fmt.Errorf("no alert sources are configured")), nil
	}

	var out strings.Builder
	sources := 0

	if e.alerts != nil {
		alerts, err := e.alerts.GetFiringAlerts(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to fetch Grafana alerts")
			out.WriteString("Grafana alerts unavailable.\n")
		} else {
			sources++
			if len(alerts) == 0 {
				out.WriteString("Grafana: no active alerts.\n")
			} else {
				fmt.Fprintf(&out, "Grafana: %d active alert%s:\n", len(alerts), pluralSuffix(len(alerts)))
				for _, alert := range alerts {
					fmt.Fprintf(&out, "  - %s [%s] since %s\n",
						alert.Name, alert.State, alert.StartsAt.UTC().Format("2006-01-02 15:04:05 UTC"))
				}
			}
		}
	}

	if e.storage != nil {
		alerts, err := e.storage.GetAlerts(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to fetch NAS alerts")
			out.WriteString("NAS alerts unavailable.\n")
		} else {
			sources++
			active := 0
			for _, alert := range alerts {
				if alert.Dismissed {
					continue
				}
				active++
			}
			if active == 0 {
				out.WriteString("NAS: no active alerts.\n")
			} else {
				fmt.Fprintf(&out, "NAS: %d active alert%s:\n", active, pluralSuffix(active))
				for _, alert := range alerts {
					if alert.Dismissed {
						continue
					}
					fmt.Fprintf(&out, "  - [%s] %s\n", alert.Level, alert.Message)
				}
			}
		}
	}

	if sources == 0 {
		return NewErrorResult(fmt.Errorf("all alert sources failed")), nil
	}
	return NewTextResult(out.String()), nil
}

func (e *Executor) executeAlertRules(ctx context.Context) (CallToolResult, error) {
	if e.alerts == nil {
		return NewErrorResult(fmt.Errorf("grafana is not configured")), nil
	}

	rules, err := e.alerts.GetAlertRules(ctx)
	if err != nil {
		return NewErrorResult(fmt.Errorf("get alert rules: %w", err)), nil
	}

	type ruleSummary struct {
		UID       string `json:"uid"`
		Title     string `json:"title"`
		RuleGroup string `json:"ruleGroup,omitempty"`
		Paused    bool   `json:"paused,omitempty"`
	}

	summaries := make([]ruleSummary, 0, len(rules))
	for _, rule := range rules {
		summaries = append(summaries, ruleSummary{
			UID:       rule.UID,
			Title:     rule.Title,
			RuleGroup: rule.RuleGroup,
			Paused:    rule.Paused,
		})
	}

	return NewJSONResult(map[string]any{
		"count": len(summaries),
		"rules": summaries,
	}), nil
}
