package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sigreer/drivescan/internal/adapter"
	"github.com/sigreer/drivescan/internal/config"
	"github.com/sigreer/drivescan/internal/scanner"
	"github.com/sigreer/drivescan/internal/version"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "drivescan",
	Short: "Live view of attached storage drives",
	Long: `drivescan polls the host for block storage devices and reports drives
as they are attached and detached. System drives are hidden unless asked for.`,
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/drivescan/config.yaml)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(eventsCmd)
}

// loadConfig loads the config and applies the flags shared by list and watch
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("include-system") {
		cfg.IncludeSystem, _ = cmd.Flags().GetBool("include-system")
	}
	if cmd.Flags().Changed("interval") {
		cfg.Interval, _ = cmd.Flags().GetDuration("interval")
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.Log.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newScanner builds a scanner over the lsblk block device adapter
func newScanner(cfg *config.Config, logger *slog.Logger) (*scanner.Scanner, error) {
	includeSystem := cfg.IncludeSystem
	blockDevices, err := adapter.NewBlockDeviceAdapter(adapter.ListBlockDevices, func() bool {
		return includeSystem
	})
	if err != nil {
		return nil, err
	}
	return scanner.New([]adapter.Adapter{blockDevices},
		scanner.WithInterval(cfg.Interval),
		scanner.WithLogger(logger))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
