package truenas

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultHTTPTimeout = 15 * time.Second

const maxResponseBodyBytes int64 = 4 * 1024 * 1024

// ClientConfig configures the TrueNAS REST API client.
type ClientConfig struct {
	Host               string
	Port               int
	APIKey             string
	Username           string
	Password           string
	UseHTTPS           bool
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Client is a thin HTTP wrapper around the TrueNAS REST API v2.0.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	baseURL    string
}

// APIError represents an HTTP-level error from the TrueNAS REST API.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("truenas request GET %s failed: status=%d body=%q", e.Path, e.StatusCode, e.Body)
}

// NewClient creates a new TrueNAS REST API client.
func NewClient(config ClientConfig) (*Client, error) {
	host := strings.TrimSpace(config.Host)
	if host == "" {
		return nil, fmt.Errorf("truenas host is required")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	scheme := "http"
	port := config.Port
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.UseHTTPS {
		scheme = "https"
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		}
		if port <= 0 {
			port = 443
		}
	} else if port <= 0 {
		port = 80
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid truenas port %d", port)
	}

	config.Host = host
	config.Timeout = timeout

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		baseURL: fmt.Sprintf("%s://%s/api/v2.0", scheme, net.JoinHostPort(host, strconv.Itoa(port))),
	}, nil
}

// TestConnection validates that the endpoint is reachable and authenticated.
func (c *Client) TestConnection(ctx context.Context) error {
	if _, err := c.GetSystemInfo(ctx); err != nil {
		return fmt.Errorf("truenas connection test failed: %w", err)
	}
	return nil
}

// Close releases idle HTTP transport connections held by the client.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}

// GetSystemInfo returns high-level system metadata.
func (c *Client) GetSystemInfo(ctx context.Context) (*SystemInfo, error) {
	var response systemInfoResponse
	if err := c.getJSON(ctx, "/system/info", &response); err != nil {
		return nil, err
	}

	return &SystemInfo{
		Hostname:      strings.TrimSpace(response.Hostname),
		Version:       strings.TrimSpace(response.Version),
		UptimeSeconds: response.UptimeSeconds,
	}, nil
}

// ListDisks returns the system disk inventory.
func (c *Client) ListDisks(ctx context.Context) ([]Disk, error) {
	var response []diskResponse
	if err := c.getJSON(ctx, "/disk", &response); err != nil {
		return nil, err
	}

	disks := make([]Disk, 0, len(response))
	for _, item := range response {
		identifier := strings.TrimSpace(item.Identifier)
		if identifier == "" {
			identifier = strings.TrimSpace(item.Name)
		}

		disks = append(disks, Disk{
			Identifier:   identifier,
			Name:         strings.TrimSpace(item.Name),
			Pool:         strings.TrimSpace(item.Pool),
			Model:        strings.TrimSpace(item.Model),
			Serial:       strings.TrimSpace(item.Serial),
			SizeBytes:    item.Size,
			Type:         strings.ToLower(strings.TrimSpace(item.Type)),
			StandbyTimer: strings.TrimSpace(item.HDDStandby),
		})
	}

	return disks, nil
}

// GetPools returns storage pools.
func (c *Client) GetPools(ctx context.Context) ([]Pool, error) {
	var response []poolResponse
	if err := c.getJSON(ctx, "/pool", &response); err != nil {
		return nil, err
	}

	pools := make([]Pool, 0, len(response))
	for _, item := range response {
		id := strconv.FormatInt(item.ID, 10)
		if id == "0" && strings.TrimSpace(item.Name) != "" {
			id = strings.TrimSpace(item.Name)
		}
		pools = append(pools, Pool{
			ID:         id,
			Name:       strings.TrimSpace(item.Name),
			Status:     strings.TrimSpace(item.Status),
			TotalBytes: item.Size,
			UsedBytes:  item.Allocated,
			FreeBytes:  item.Free,
		})
	}

	return pools, nil
}

// GetAlerts returns active and dismissed TrueNAS alerts.
func (c *Client) GetAlerts(ctx context.Context) ([]Alert, error) {
	var response []alertResponse
	if err := c.getJSON(ctx, "/alert/list", &response); err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, len(response))
	for _, item := range response {
		var id string
		if err := json.Unmarshal(item.ID, &id); err != nil {
			var numeric int64
			if err := json.Unmarshal(item.ID, &numeric); err != nil {
				return nil, fmt.Errorf("parse alert id %s: unsupported format", string(item.ID))
			}
			id = strconv.FormatInt(numeric, 10)
		}

		var when time.Time
		if len(item.Datetime.Date) > 0 {
			var ms int64
			if err := json.Unmarshal(item.Datetime.Date, &ms); err != nil {
				return nil, fmt.Errorf("parse alert %q datetime: %w", id, err)
			}
			when = time.UnixMilli(ms).UTC()
		}

		alerts = append(alerts, Alert{
			ID:        id,
			Level:     strings.TrimSpace(item.Level),
			Message:   strings.TrimSpace(item.Formatted),
			Source:    strings.TrimSpace(item.Source),
			Dismissed: item.Dismissed,
			Datetime:  when,
		})
	}

	return alerts, nil
}

type systemInfoResponse struct {
	Hostname      string `json:"hostname"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type diskResponse struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Serial     string `json:"serial"`
	Size       int64  `json:"size"`
	Model      string `json:"model"`
	Type       string `json:"type"`
	Pool       string `json:"pool"`
	HDDStandby string `json:"hddstandby"`
}

type poolResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Size      int64  `json:"size"`
	Allocated int64  `json:"allocated"`
	Free      int64  `json:"free"`
}

type alertResponse struct {
	ID        json.RawMessage `json:"id"`
	Level     string          `json:"level"`
	Formatted string          `json:"formatted"`
	Source    string          `json:"source"`
	Dismissed bool            `json:"dismissed"`
	Datetime  struct {
		Date json.RawMessage `json:"$date"`
	} `json:"datetime"`
}

func (c *Client) getJSON(ctx context.Context, path string, destination any) (err error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build truenas request GET %s: %w", path, err)
	}

	request.Header.Set("Accept", "application/json")
	if apiKey := strings.TrimSpace(c.config.APIKey); apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+apiKey)
	} else if c.config.Username != "" || c.config.Password != "" {
		request.SetBasicAuth(c.config.Username, c.config.Password)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("truenas request GET %s failed: %w", path, err)
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close truenas response body for %s: %w", path, closeErr)
		}
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		body, readErr := io.ReadAll(io.LimitReader(response.Body, 4096))
		if readErr != nil {
			return fmt.Errorf("read truenas error response body for %s: %w", path, readErr)
		}
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = http.StatusText(response.StatusCode)
		}
		return &APIError{
			StatusCode: response.StatusCode,
			Path:       path,
			Body:       message,
		}
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read truenas response for %s: %w", path, err)
	}
	if int64(len(body)) > maxResponseBodyBytes {
		return fmt.Errorf("decode truenas response for %s: response body exceeds %d bytes", path, maxResponseBodyBytes)
	}

	if err := json.Unmarshal(body, destination); err != nil {
		return fmt.Errorf("decode truenas response for %s: %w", path, err)
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
