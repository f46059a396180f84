package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockroom/stockroom/internal/inventory"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockAlert reports a single product that fell to its reorder level.
	TaskLowStockAlert = "stock:low_alert"
	// TaskLowStockScan sweeps the catalogue for products at or below their
	// reorder level.
	TaskLowStockScan = "stock:low_stock_scan"
)

// LowStockAlertPayload describes the product that triggered an alert.
type LowStockAlertPayload struct {
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	MinStock    int       `json:"min_stock"`
	Reference   string    `json:"reference,omitempty"`
	RaisedAt    time.Time `json:"raised_at"`
}

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	Trigger string `json:"trigger"`
}

// NewLowStockAlertTask constructs the alert task for a movement outcome.
func NewLowStockAlertTask(alert inventory.LowStockAlert, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockAlertPayload{
		ProductID:   alert.ProductID,
		ProductName: alert.ProductName,
		Quantity:    alert.Quantity,
		MinStock:    alert.MinStock,
		Reference:   alert.Reference,
		RaisedAt:    at.UTC(),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockAlert, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewLowStockScanTask constructs the scan task. trigger is "cron" or "manual".
func NewLowStockScanTask(trigger string) (*asynq.Task, error) {
	if trigger == "" {
		trigger = "manual"
	}
	body, err := json.Marshal(LowStockScanPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}

func alertKey(productID int64) string {
	return fmt.Sprintf("%s:%d", TaskLowStockAlert, productID)
}
