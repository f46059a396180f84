package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stockroom/stockroom/internal/jobs"
	"github.com/stockroom/stockroom/internal/masterdata/products"
)

// LowStockAlertJob records alerts raised by stock movements.
type LowStockAlertJob struct {
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLowStockAlertJob initialises the alert handler.
func NewLowStockAlertJob(logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockAlertJob {
	return &LowStockAlertJob{Logger: logger, Metrics: metrics}
}

// Handle logs the alert and counts it.
func (j *LowStockAlertJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var payload LowStockAlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskLowStockAlert)
	defer func() { err = tracker.End(err) }()

	attrs := []any{
		slog.Int64("product_id", payload.ProductID),
		slog.String("product_name", payload.ProductName),
		slog.Int("quantity", payload.Quantity),
		slog.Int("min_stock", payload.MinStock),
		slog.Time("raised_at", payload.RaisedAt),
	}
	if payload.Reference != "" {
		attrs = append(attrs, slog.String("reference", payload.Reference))
	}
	logger(j.Logger).Warn("low stock alert", attrs...)
	j.Metrics.AddLowStockAlerts("movement", 1)
	return nil
}

// LowStockLister returns products that need restocking.
type LowStockLister interface {
	LowStock(ctx context.Context) ([]products.Product, error)
	OutOfStock(ctx context.Context) ([]products.Product, error)
}

// LowStockScanJob reports every product at or below its reorder level.
type LowStockScanJob struct {
	Products LowStockLister
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewLowStockScanJob initialises the scan handler.
func NewLowStockScanJob(lister LowStockLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{
		Products: lister,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Products == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	_, err := j.Run(ctx, payload.Trigger)
	return err
}

// Run performs one scan and returns the number of products reported.
func (j *LowStockScanJob) Run(ctx context.Context, trigger string) (count int, err error) {
	start := j.clock()
	tracker := j.Metrics.Track(TaskLowStockScan)
	defer func() { err = tracker.End(err) }()

	log := logger(j.Logger).With(slog.String("trigger", trigger))
	log.Info("starting low stock scan")

	low, err := j.Products.LowStock(ctx)
	if err != nil {
		log.Error("low stock scan failed", slog.Any("error", err))
		return 0, err
	}
	empty, err := j.Products.OutOfStock(ctx)
	if err != nil {
		log.Error("low stock scan failed", slog.Any("error", err))
		return 0, err
	}
	items := append(empty, low...)
	for _, p := range items {
		log.Warn("product below reorder level",
			slog.Int64("product_id", p.ID),
			slog.String("sku", p.SKU),
			slog.String("product_name", p.Name),
			slog.Int("quantity", p.Quantity),
			slog.Int("min_stock", p.MinStock),
		)
	}
	j.Metrics.AddLowStockAlerts("scan", len(items))

	log.Info("completed low stock scan",
		slog.Int("low_stock", len(low)),
		slog.Int("out_of_stock", len(empty)),
		slog.Duration("duration", j.clock().Sub(start)),
	)
	return len(items), nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
