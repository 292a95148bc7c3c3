package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/grafana"
	"github.com/wardenlabs/warden/internal/hddpower"
	"github.com/wardenlabs/warden/internal/loki"
	"github.com/wardenlabs/warden/internal/memory"
	"github.com/wardenlabs/warden/internal/prometheus"
	"github.com/wardenlabs/warden/internal/truenas"
)

// backendSet holds the constructed backend clients. Optional backends are nil
// when not configured; the metrics backend is always present.
type backendSet struct {
	metrics *prometheus.Client
	nas     *truenas.Client
	grafana *grafana.Client
	loki    *loki.Client
	memory  *memory.Store
	power   *hddpower.Service
}

func buildBackends(cfg *config.Config) (*backendSet, error) {
	backends := &backendSet{}

	metricsClient, err := prometheus.NewClient(prometheus.ClientConfig{
		BaseURL: cfg.Prometheus.URL,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("configure metrics backend: %w", err)
	}
	backends.metrics = metricsClient

	if cfg.TrueNAS != nil {
		nasClient, err := truenas.NewClient(truenas.ClientConfig{
			Host:               cfg.TrueNAS.Host,
			Port:               cfg.TrueNAS.Port,
			APIKey:             cfg.TrueNAS.APIKey,
			Username:           cfg.TrueNAS.Username,
			Password:           cfg.TrueNAS.Password,
			UseHTTPS:           cfg.TrueNAS.UseHTTPS,
			InsecureSkipVerify: cfg.TrueNAS.InsecureSkipVerify,
			Timeout:            cfg.RequestTimeout,
		})
		if err != nil {
			backends.Close()
			return nil, fmt.Errorf("configure truenas client: %w", err)
		}
		backends.nas = nasClient
	} else {
		log.Info().Msg("TrueNAS not configured; inventory and NAS alerts disabled")
	}

	if cfg.Grafana != nil {
		grafanaClient, err := grafana.NewClient(grafana.ClientConfig{
			BaseURL: cfg.Grafana.URL,
			APIKey:  cfg.Grafana.APIKey,
			Timeout: cfg.RequestTimeout,
		})
		if err != nil {
			backends.Close()
			return nil, fmt.Errorf("configure grafana client: %w", err)
		}
		backends.grafana = grafanaClient
	}

	if cfg.Loki != nil {
		lokiClient, err := loki.NewClient(loki.ClientConfig{
			BaseURL: cfg.Loki.URL,
			Timeout: cfg.RequestTimeout,
		})
		if err != nil {
			backends.Close()
			return nil, fmt.Errorf("configure loki client: %w", err)
		}
		backends.loki = lokiClient
	}

	store, err := memory.NewStore(cfg.MemoryDBPath)
	if err != nil {
		// Memory is a convenience; a broken store should not stop startup.
		log.Warn().Err(err).Str("path", cfg.MemoryDBPath).Msg("Memory store unavailable")
	} else {
		backends.memory = store
	}

	var inventory hddpower.InventoryProvider
	if backends.nas != nil {
		inventory = backends.nas
	}
	backends.power = hddpower.NewService(backends.metrics, inventory)

	return backends, nil
}

func (b *backendSet) Close() {
	if b.metrics != nil {
		b.metrics.Close()
	}
	if b.nas != nil {
		b.nas.Close()
	}
	if b.grafana != nil {
		b.grafana.Close()
	}
	if b.loki != nil {
		b.loki.Close()
	}
	if b.memory != nil {
		if err := b.memory.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close memory store")
		}
	}
}
