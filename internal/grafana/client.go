// Package grafana provides a read-only client for the Grafana HTTP API,
// covering the alerting surface the assistant exposes as a tool.
package grafana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 15 * time.Second

const maxResponseBodyBytes int64 = 4 * 1024 * 1024

// ClientConfig configures the Grafana API client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is a thin read-only wrapper over the Grafana HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// APIError represents a non-success HTTP status from the Grafana API.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("grafana request GET %s failed: status=%d body=%q", e.Path, e.StatusCode, e.Body)
}

// Alert is one active alert from the Grafana-managed Alertmanager.
type Alert struct {
	Name        string
	State       string
	Labels      map[string]string
	Annotations map[string]string
	StartsAt    time.Time
}

// AlertRule is one provisioned Grafana alert rule.
type AlertRule struct {
	UID       string
	Title     string
	RuleGroup string
	FolderUID string
	Paused    bool
}

// NewClient creates a Grafana API client.
func NewClient(config ClientConfig) (*Client, error) {
	base := strings.TrimSpace(config.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("grafana base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse grafana base url %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported grafana scheme %q", parsed.Scheme)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		apiKey:     strings.TrimSpace(config.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Close releases idle HTTP transport connections held by the client.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}

// GetFiringAlerts returns the alerts currently known to the Grafana-managed
// Alertmanager.
func (c *Client) GetFiringAlerts(ctx context.Context) ([]Alert, error) {
	var response []alertResponse
	if err := c.getJSON(ctx, "/api/alertmanager/grafana/api/v2/alerts", &response); err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, len(response))
	for _, item := range response {
		name := item.Labels["alertname"]
		if name == "" {
			name = "(unnamed alert)"
		}
		alerts = append(alerts, Alert{
			Name:        name,
			State:       strings.TrimSpace(item.Status.State),
			Labels:      item.Labels,
			Annotations: item.Annotations,
			StartsAt:    item.StartsAt,
		})
	}
	return alerts, nil
}

// GetAlertRules returns the provisioned Grafana alert rules.
func (c *Client) GetAlertRules(ctx context.Context) ([]AlertRule, error) {
	var response []alertRuleResponse
	if err := c.getJSON(ctx, "/api/v1/provisioning/alert-rules", &response); err != nil {
		return nil, err
	}

	rules := make([]AlertRule, 0, len(response))
	for _, item := range response {
		rules = append(rules, AlertRule{
			UID:       strings.TrimSpace(item.UID),
			Title:     strings.TrimSpace(item.Title),
			RuleGroup: strings.TrimSpace(item.RuleGroup),
			FolderUID: strings.TrimSpace(item.FolderUID),
			Paused:    item.IsPaused,
		})
	}
	return rules, nil
}

type alertResponse struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
	Status      struct {
		State string `json:"state"`
	} `json:"status"`
}

type alertRuleResponse struct {
	UID       string `json:"uid"`
	Title     string `json:"title"`
	RuleGroup string `json:"ruleGroup"`
	FolderUID string `json:"folderUID"`
	IsPaused  bool   `json:"isPaused"`
}

func (c *Client) getJSON(ctx context.Context, path string, destination any) (err error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build grafana request GET %s: %w", path, err)
	}
	request.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("grafana request GET %s failed: %w", path, err)
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close grafana response body for %s: %w", path, closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read grafana response for %s: %w", path, err)
	}
	if int64(len(body)) > maxResponseBodyBytes {
		return fmt.Errorf("decode grafana response for %s: response body exceeds %d bytes", path, maxResponseBodyBytes)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = http.StatusText(response.StatusCode)
		}
		return &APIError{StatusCode: response.StatusCode, Path: path, Body: message}
	}

	if err := json.Unmarshal(body, destination); err != nil {
		return fmt.Errorf("decode grafana response for %s: %w", path, err)
	}
	return nil
}

// IsTimeout reports whether err represents a timed-out request.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsConnectionError reports whether err represents a failure to reach the
// endpoint at all. Timeouts are reported separately by IsTimeout.
func IsConnectionError(err error) bool {
	if IsTimeout(err) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
