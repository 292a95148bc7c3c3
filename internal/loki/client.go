// Package loki provides a read-only client for the Loki log query API.
package loki

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

const defaultQueryLimit = 100

// ClientConfig configures the Loki API client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a thin read-only wrapper over the Loki query API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a non-success HTTP status from the Loki API.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("loki request GET %s failed: status=%d body=%q", e.Path, e.StatusCode, e.Body)
}

// Entry is a single log line with its stream labels.
type Entry struct {
	Timestamp time.Time
	Line      string
	Labels    map[string]string
}

// NewClient creates a Loki API client.
func NewClient(config ClientConfig) (*Client, error) {
	base := strings.TrimSpace(config.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("loki base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse loki base url %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported loki scheme %q", parsed.Scheme)
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

// QueryRange runs a LogQL query over [start, end] and returns the matching
// entries, newest first. A non-positive limit uses the default.
func (c *Client) QueryRange(ctx context.Context, logQL string, start, end time.Time, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	params := url.Values{}
	params.Set("query", logQL)
	params.Set("start", strconv.FormatInt(start.UnixNano(), 10))
	params.Set("end", strconv.FormatInt(end.UnixNano(), 10))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("direction", "backward")

	var envelope queryEnvelope
	if err := c.getJSON(ctx, "/loki/api/v1/query_range", params, &envelope); err != nil {
		return nil, err
	}
	if envelope.Status != "success" {
		return nil, fmt.Errorf("loki query returned status %q", envelope.Status)
	}
	if envelope.Data.ResultType != "streams" {
		return nil, fmt.Errorf("unexpected loki result type %q", envelope.Data.ResultType)
	}

	var entries []Entry
	for _, stream := range envelope.Data.Result {
		for _, value := range stream.Values {
			if len(value) != 2 {
				return nil, fmt.Errorf("malformed loki value of length %d", len(value))
			}
			nanos, err := strconv.ParseInt(value[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse loki timestamp %q: %w", value[0], err)
			}
			entries = append(entries, Entry{
				Timestamp: time.Unix(0, nanos).UTC(),
				Line:      value[1],
				Labels:    stream.Stream,
			})
		}
	}
	return entries, nil
}

type queryEnvelope struct {
	Status string    `json:"status"`
	Data   queryData `json:"data"`
}

type queryData struct {
	ResultType string        `json:"resultType"`
	Result     []streamEntry `json:"result"`
}

type streamEntry struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, destination any) (err error) {
	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("build loki request GET %s: %w", path, err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("loki request GET %s failed: %w", path, err)
	}
	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close loki response body for %s: %w", path, closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read loki response for %s: %w", path, err)
	}
	if int64(len(body)) > maxResponseBodyBytes {
		return fmt.Errorf("decode loki response for %s: response body exceeds %d bytes", path, maxResponseBodyBytes)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = http.StatusText(response.StatusCode)
		}
		return &APIError{StatusCode: response.StatusCode, Path: path, Body: message}
	}

	if err := json.Unmarshal(body, destination); err != nil {
		return fmt.Errorf("decode loki response for %s: %w", path, err)
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
