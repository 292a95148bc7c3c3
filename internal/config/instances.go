package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const sensitiveMask = "********"

// PrometheusInstance configures the metrics backend. It is the only backend
// warden cannot run without.
type PrometheusInstance struct {
	URL string `json:"url"`
}

// Validate performs required Prometheus configuration checks.
func (p *PrometheusInstance) Validate() error {
	if strings.TrimSpace(p.URL) == "" {
		return fmt.Errorf("prometheus url is required: set %sPROMETHEUS_URL", envPrefix)
	}
	return validateHTTPURL("prometheus", p.URL)
}

// TrueNASInstance represents a configured TrueNAS endpoint.
type TrueNASInstance struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Host               string `json:"host"`
	Port               int    `json:"port,omitempty"`
	APIKey             string `json:"apiKey,omitempty"`
	Username           string `json:"username,omitempty"`
	Password           string `json:"password,omitempty"`
	UseHTTPS           bool   `json:"useHttps"`
	InsecureSkipVerify bool   `json:"insecureSkipVerify,omitempty"`
}

// NewTrueNASInstance returns a new instance with generated ID and sane defaults.
func NewTrueNASInstance() TrueNASInstance {
	return TrueNASInstance{
		ID:       uuid.NewString(),
		UseHTTPS: true,
	}
}

// Validate performs required TrueNAS configuration checks.
func (t *TrueNASInstance) Validate() error {
	if t == nil {
		return fmt.Errorf("truenas instance is required")
	}
	if strings.TrimSpace(t.Host) == "" {
		return fmt.Errorf("truenas host is required")
	}
	if strings.TrimSpace(t.APIKey) != "" {
		return nil
	}
	if strings.TrimSpace(t.Username) == "" || strings.TrimSpace(t.Password) == "" {
		return fmt.Errorf("truenas credentials are required: provide api key or username/password")
	}
	return nil
}

// Redacted returns a copy with sensitive credentials masked.
func (t *TrueNASInstance) Redacted() TrueNASInstance {
	if t == nil {
		return TrueNASInstance{}
	}
	redacted := *t
	if strings.TrimSpace(redacted.APIKey) != "" {
		redacted.APIKey = sensitiveMask
	}
	if strings.TrimSpace(redacted.Password) != "" {
		redacted.Password = sensitiveMask
	}
	return redacted
}

// GrafanaInstance represents a configured Grafana endpoint.
type GrafanaInstance struct {
	URL    string `json:"url"`
	APIKey string `json:"apiKey,omitempty"`
}

// Validate performs required Grafana configuration checks.
func (g *GrafanaInstance) Validate() error {
	if strings.TrimSpace(g.URL) == "" {
		return fmt.Errorf("grafana url is required")
	}
	return validateHTTPURL("grafana", g.URL)
}

// Redacted returns a copy with sensitive credentials masked.
func (g *GrafanaInstance) Redacted() GrafanaInstance {
	if g == nil {
		return GrafanaInstance{}
	}
	redacted := *g
	if strings.TrimSpace(redacted.APIKey) != "" {
		redacted.APIKey = sensitiveMask
	}
	return redacted
}

// LokiInstance represents a configured Loki endpoint.
type LokiInstance struct {
	URL string `json:"url"`
}

// Validate performs required Loki configuration checks.
func (l *LokiInstance) Validate() error {
	if strings.TrimSpace(l.URL) == "" {
		return fmt.Errorf("loki url is required")
	}
	return validateHTTPURL("loki", l.URL)
}

func validateHTTPURL(name, raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse %s url %q: %w", name, raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported %s scheme %q", name, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s url %q has no host", name, raw)
	}
	return nil
}
