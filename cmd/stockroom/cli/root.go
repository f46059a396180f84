// Package cli implements the stockroom command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stockroom/stockroom/internal/app"
)

var (
	// Global flags
	logLevel  string
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stockroom",
	Short: "Stockroom - inventory management API",
	Long: `Stockroom serves the inventory REST API: authentication, categories,
suppliers, products, purchase and sale orders, and stock movements.

Commands:
  serve    - Run the HTTP API (optionally with the background worker)
  worker   - Run the background worker only
  migrate  - Apply database migrations
  seed     - Load demo data
  jobs     - Inspect and trigger background jobs`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override LOG_FORMAT (json, pretty)")
}

// loadRuntime reads the configuration and builds the logger, applying the
// global flag overrides.
func loadRuntime() (*app.Config, *slog.Logger, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, app.NewLogger(cfg), nil
}
