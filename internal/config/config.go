// Package config loads and validates the warden runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const envPrefix = "WARDEN_"

const defaultDataDir = "/etc/warden"

// Config holds the full runtime configuration.
type Config struct {
	ListenAddr string
	DataPath   string

	LogLevel  string
	LogFormat string

	ControlLevel string // "read-only" or "full"

	RequestTimeout time.Duration

	MemoryDBPath string

	Prometheus PrometheusInstance
	TrueNAS    *TrueNASInstance
	Grafana    *GrafanaInstance
	Loki       *LokiInstance
}

// Load reads configuration from the environment, honoring an optional .env
// file in the data directory and the current directory.
func Load() (*Config, error) {
	dataDir := defaultDataDir
	if dir := strings.TrimSpace(os.Getenv(envPrefix + "DATA_DIR")); dir != "" {
		dataDir = dir
	}

	envFile := filepath.Join(dataDir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			log.Warn().Err(err).Str("file", envFile).Msg("Failed to load .env file")
		} else {
			log.Info().Str("file", envFile).Msg("Loaded .env file for deployment overrides")
		}
	}
	// Development convenience.
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("Loaded configuration from .env in current directory")
	}

	cfg := &Config{
		ListenAddr:     ":8844",
		DataPath:       dataDir,
		LogLevel:       "info",
		LogFormat:      "auto",
		ControlLevel:   "read-only",
		RequestTimeout: 15 * time.Second,
		MemoryDBPath:   filepath.Join(dataDir, "warden.db"),
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if val := getenv("LISTEN_ADDR"); val != "" {
		c.ListenAddr = val
	}
	if val := getenv("LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := getenv("LOG_FORMAT"); val != "" {
		c.LogFormat = val
	}
	if val := getenv("CONTROL_LEVEL"); val != "" {
		c.ControlLevel = val
	}
	if val := getenv("REQUEST_TIMEOUT"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil && parsed > 0 {
			c.RequestTimeout = parsed
		} else {
			log.Warn().Str("value", val).Msg("Invalid request timeout; keeping default")
		}
	}
	if val := getenv("MEMORY_DB"); val != "" {
		c.MemoryDBPath = val
	}

	c.Prometheus = PrometheusInstance{
		URL: getenv("PROMETHEUS_URL"),
	}

	if host := getenv("TRUENAS_HOST"); host != "" {
		instance := NewTrueNASInstance()
		instance.Host = host
		instance.APIKey = getenv("TRUENAS_API_KEY")
		instance.Username = getenv("TRUENAS_USERNAME")
		instance.Password = getenv("TRUENAS_PASSWORD")
		if port := getenv("TRUENAS_PORT"); port != "" {
			if parsed, err := strconv.Atoi(port); err == nil && parsed > 0 && parsed < 65536 {
				instance.Port = parsed
			} else {
				log.Warn().Str("value", port).Msg("Invalid TrueNAS port; keeping default")
			}
		}
		if val := getenv("TRUENAS_INSECURE"); val != "" {
			instance.InsecureSkipVerify = parseBool(val)
		}
		if val := getenv("TRUENAS_HTTPS"); val != "" {
			instance.UseHTTPS = parseBool(val)
		}
		c.TrueNAS = &instance
	}

	if url := getenv("GRAFANA_URL"); url != "" {
		c.Grafana = &GrafanaInstance{
			URL:    url,
			APIKey: getenv("GRAFANA_API_KEY"),
		}
	}

	if url := getenv("LOKI_URL"); url != "" {
		c.Loki = &LokiInstance{URL: url}
	}
}

// Validate checks the loaded configuration for unusable values.
func (c *Config) Validate() error {
	if err := c.Prometheus.Validate(); err != nil {
		return err
	}
	if c.TrueNAS != nil {
		if err := c.TrueNAS.Validate(); err != nil {
			return err
		}
	}
	if c.Grafana != nil {
		if err := c.Grafana.Validate(); err != nil {
			return err
		}
	}
	if c.Loki != nil {
		if err := c.Loki.Validate(); err != nil {
			return err
		}
	}
	switch c.ControlLevel {
	case "read-only", "full":
	default:
		return fmt.Errorf("invalid control level %q: use read-only or full", c.ControlLevel)
	}
	return nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func parseBool(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return parsed
}
