package prometheus

import (
	"context"
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

const maxResponseBodyBytes int64 = 16 * 1024 * 1024

// ClientConfig configures the Prometheus HTTP API client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client queries the Prometheus HTTP API v1. It issues read-only instant and
// range queries and performs no retries; a single failure is surfaced to the
// caller immediately.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a non-success HTTP status from the Prometheus API.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prometheus request %s failed: status=%d body=%q", e.Path, e.StatusCode, e.Body)
}

// NewClient creates a Prometheus API client for the given base URL
// (e.g. "http://prometheus:9090").
func NewClient(config ClientConfig) (*Client, error) {
	base := strings.TrimSpace(config.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("prometheus base url is required")
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse prometheus base url %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported prometheus scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("prometheus base url %q is missing a host", base)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
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

// BaseURL returns the endpoint the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Query runs an instant query and returns one sample per matching series.
func (c *Client) Query(ctx context.Context, query string) ([]InstantSample, error) {
	params := url.Values{}
	params.Set("query", query)

	var envelope apiEnvelope
	if err := c.getJSON(ctx, "/api/v1/query", params, &envelope); err != nil {
		return nil, err
	}
	if err := checkEnvelope(envelope, "/api/v1/query"); err != nil {
		return nil, err
	}

	var entries []vectorEntry
	if err := json.Unmarshal(envelope.Data.Result, &entries); err != nil {
		return nil, fmt.Errorf("decode prometheus vector result: %w", err)
	}

	samples := make([]InstantSample, 0, len(entries))
	for _, entry := range entries {
		ts, value, err := entry.Value.decode()
		if err != nil {
			return nil, fmt.Errorf("decode prometheus vector sample: %w", err)
		}
		samples = append(samples, InstantSample{
			Labels:    entry.Metric,
			Timestamp: ts,
			Value:     value,
		})
	}

	return samples, nil
}

// QueryRange runs a range query over [start, end] (unix seconds) with the
// given resolution step. Sample values are parsed to floats at the boundary;
// samples within a series keep Prometheus's ascending timestamp order.
func (c *Client) QueryRange(ctx context.Context, query string, start, end float64, step time.Duration) ([]Series, error) {
	if step <= 0 {
		return nil, fmt.Errorf("prometheus range query step must be positive, got %s", step)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("start", formatUnixSeconds(start))
	params.Set("end", formatUnixSeconds(end))
	params.Set("step", strconv.FormatInt(int64(step/time.Second), 10))

	var envelope apiEnvelope
	if err := c.getJSON(ctx, "/api/v1/query_range", params, &envelope); err != nil {
		return nil, err
	}
	if err := checkEnvelope(envelope, "/api/v1/query_range"); err != nil {
		return nil, err
	}

	var entries []matrixEntry
	if err := json.Unmarshal(envelope.Data.Result, &entries); err != nil {
		return nil, fmt.Errorf("decode prometheus matrix result: %w", err)
	}

	series := make([]Series, 0, len(entries))
	for _, entry := range entries {
		values := make([]SamplePair, 0, len(entry.Values))
		for _, point := range entry.Values {
			ts, value, err := point.decodeFloat()
			if err != nil {
				return nil, fmt.Errorf("decode prometheus matrix sample: %w", err)
			}
			values = append(values, SamplePair{Timestamp: ts, Value: value})
		}
		series = append(series, Series{Labels: entry.Metric, Values: values})
	}

	return series, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, destination any) (err error) {
	endpoint := c.baseURL + path
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build prometheus request %s: %w", path, err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("prometheus request %s failed: %w", path, err)
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close prometheus response body for %s: %w", path, closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read prometheus response for %s: %w", path, err)
	}
	if int64(len(body)) > maxResponseBodyBytes {
		return fmt.Errorf("decode prometheus response for %s: response body exceeds %d bytes", path, maxResponseBodyBytes)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(body))
		if len(message) > 4096 {
			message = message[:4096]
		}
		if message == "" {
			message = http.StatusText(response.StatusCode)
		}
		return &APIError{
			StatusCode: response.StatusCode,
			Path:       path,
			Body:       message,
		}
	}

	if err := json.Unmarshal(body, destination); err != nil {
		return fmt.Errorf("decode prometheus response for %s: %w", path, err)
	}
	return nil
}

func checkEnvelope(envelope apiEnvelope, path string) error {
	if envelope.Status != "success" {
		return fmt.Errorf("prometheus query %s returned status %q: %s %s",
			path, envelope.Status, envelope.ErrorType, envelope.Error)
	}
	return nil
}

func formatUnixSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
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
// endpoint at all (DNS, refused connection, unreachable network). Timeouts
// are reported separately by IsTimeout.
func IsConnectionError(err error) bool {
	if IsTimeout(err) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
