package jobs

import (
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/stockroom/stockroom/internal/jobs"
	"github.com/stockroom/stockroom/internal/masterdata/products"
)

// StockWorkerConfig collects what the stock worker needs.
type StockWorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Pool        *pgxpool.Pool
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	ScanCron    string
	Concurrency int
}

// NewStockWorker registers the low-stock handlers and the scheduled scan.
// An empty ScanCron disables the schedule.
func NewStockWorker(cfg StockWorkerConfig) (*Worker, error) {
	productService := products.NewService(products.NewRepository(cfg.Pool))
	alertJob := NewLowStockAlertJob(cfg.Logger, cfg.Metrics)
	scanJob := NewLowStockScanJob(productService, cfg.Logger, cfg.Metrics)

	var cron []CronRegistration
	if cfg.ScanCron != "" {
		scanTask, err := NewLowStockScanTask("cron")
		if err != nil {
			return nil, err
		}
		cron = append(cron, CronRegistration{Spec: cfg.ScanCron, Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	return NewWorker(WorkerConfig{
		RedisOpts:   cfg.RedisOpts,
		Logger:      cfg.Logger,
		Concurrency: cfg.Concurrency,
		Handlers: []TaskHandler{
			{Type: TaskLowStockAlert, Handler: alertJob.Handle},
			{Type: TaskLowStockScan, Handler: scanJob.Handle},
		},
		Cron: cron,
	})
}
