package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stockroom/stockroom/internal/app"
	jobmetrics "github.com/stockroom/stockroom/internal/jobs"
	"github.com/stockroom/stockroom/internal/observability"
	"github.com/stockroom/stockroom/jobs"
)

// workerCmd runs the background worker
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background worker",
	Long: `Process low-stock alerts and run the scheduled low-stock scan
(LOW_STOCK_SCAN_CRON) until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunWorker(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

// RunWorker runs the background worker until ctx is cancelled.
func RunWorker(ctx context.Context) error {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return nil
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	deps, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer deps.Close()

	worker, err := jobs.NewStockWorker(jobs.StockWorkerConfig{
		RedisOpts:   cfg.Redis().AsynqOpt(),
		Pool:        deps.Pool,
		Logger:      logger,
		Metrics:     jobmetrics.NewMetrics(observability.NewMetrics().Registerer()),
		ScanCron:    cfg.LowStockScanCron,
		Concurrency: cfg.WorkerConcurrency,
	})
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}

	logger.Info("starting worker", slog.String("scan_cron", cfg.LowStockScanCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker run: %w", err)
	}
	return nil
}
