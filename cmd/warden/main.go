package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wardenlabs/warden/internal/api"
	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/logging"
	"github.com/wardenlabs/warden/internal/tools"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "warden",
	Short:   "Warden - NAS monitoring assistant backend",
	Long:    `Warden correlates NAS disk power metrics, inventory, logs, and alerts into a tool surface for AI assistants.`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Warden %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Printf("Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(hddStatusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer() error {
	// Baseline defaults for early startup logs.
	logging.Init(logging.Config{
		Format:    "auto",
		Level:     "info",
		Component: "warden",
	})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Re-initialize logging with configuration-driven settings.
	logging.Init(logging.Config{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		Component: "warden",
	})

	log.Info().Str("version", Version).Msg("Starting warden server")

	backends, err := buildBackends(cfg)
	if err != nil {
		return err
	}
	defer backends.Close()

	executor := newExecutor(cfg, backends)

	server := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: api.NewRouter(executor, api.VersionInfo{
			Version:   Version,
			GitCommit: GitCommit,
			BuildTime: BuildTime,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func newExecutor(cfg *config.Config, backends *backendSet) *tools.Executor {
	executor := tools.NewExecutor(tools.ParseControlLevel(cfg.ControlLevel))
	executor.SetMetricsProvider(backends.metrics)
	executor.SetPowerStatusProvider(backends.power)
	if backends.nas != nil {
		executor.SetStorageProvider(backends.nas)
	}
	if backends.grafana != nil {
		executor.SetAlertProvider(backends.grafana)
	}
	if backends.loki != nil {
		executor.SetLogProvider(backends.loki)
	}
	if backends.memory != nil {
		executor.SetMemoryProvider(backends.memory)
	}
	return executor
}
