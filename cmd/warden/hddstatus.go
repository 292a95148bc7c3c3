package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wardenlabs/warden/internal/config"
	"github.com/wardenlabs/warden/internal/logging"
)

var (
	hddStatusDuration string
	hddStatusPool     string
)

var hddStatusCmd = &cobra.Command{
	Use:   "hdd-status",
	Short: "Print the HDD power status report and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(logging.Config{
			Format:    "console",
			Level:     "warn",
			Component: "warden",
		})

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		backends, err := buildBackends(cfg)
		if err != nil {
			return err
		}
		defer backends.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		report, err := backends.power.PowerStatusReport(ctx, hddStatusDuration, hddStatusPool)
		if err != nil {
			return err
		}
		fmt.Println(report)
		return nil
	},
}

func init() {
	hddStatusCmd.Flags().StringVar(&hddStatusDuration, "duration", "", "statistics window, e.g. 90m, 24h, 3d, 1w (default 24h)")
	hddStatusCmd.Flags().StringVar(&hddStatusPool, "pool", "", "restrict the report to disks in this pool")
}
