package inventory

import (
	"errors"
	"time"

	internalShared "github.com/stockroom/stockroom/internal/shared"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementIn adds quantity to the product.
	MovementIn MovementType = "in"
	// MovementOut removes quantity from the product.
	MovementOut MovementType = "out"
	// MovementAdjustment sets the product quantity to an absolute value.
	MovementAdjustment MovementType = "adjustment"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// Order types understood by ApplyOrderCompletion.
const (
	OrderTypePurchase = "purchase"
	OrderTypeSale     = "sale"
)

// Reasons written on order-driven movements.
const (
	ReasonPurchaseCompleted = "Purchase Order Completed"
	ReasonSaleCompleted     = "Sales Order Completed"
)

// Movement is an append-only stock movement record.
type Movement struct {
	ID          int64        `json:"id"`
	ProductID   *int64       `json:"product_id"`
	ProductName string       `json:"product_name"`
	Type        MovementType `json:"type"`
	Quantity    int          `json:"quantity"`
	StockBefore int          `json:"stock_before"`
	StockAfter  int          `json:"stock_after"`
	Reason      string       `json:"reason"`
	Reference   *string      `json:"reference"`
	CreatedBy   *int64       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Product     *ProductRef  `json:"product,omitempty"`
	Creator     *UserRef     `json:"creator,omitempty"`

	// minStock is the product's reorder level when the movement was written.
	minStock int
}

// LowStock reports whether the movement left its product at or below the
// reorder level.
func (m Movement) LowStock() bool {
	return m.ProductID != nil && m.StockAfter <= m.minStock
}

// ProductRef summarises the product a movement belongs to.
type ProductRef struct {
	ID   int64  `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// UserRef summarises the user who recorded a movement.
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductStock is the locked view of a product used while moving stock.
type ProductStock struct {
	ID       int64
	Name     string
	Quantity int
	MinStock int
}

// RecordMovementCommand records a manual movement.
type RecordMovementCommand struct {
	ProductID int64
	Type      MovementType
	Quantity  int
	Reason    string
	Reference *string
	CreatedBy int64
}

// CompletionItem is one order line applied to stock.
type CompletionItem struct {
	ProductID int64
	Quantity  int
}

// OrderCompletion carries what stock needs to know about a completed order.
type OrderCompletion struct {
	OrderNumber string
	OrderType   string
	CreatedBy   int64
	Items       []CompletionItem
}

// ListFilter narrows the movement list. Dates are inclusive calendar days.
type ListFilter struct {
	ProductID *int64
	Type      MovementType
	FromDate  *time.Time
	ToDate    *time.Time
}

// Stats aggregates movement counts.
type Stats struct {
	TotalMovements  int64 `json:"total_movements"`
	StockInCount    int64 `json:"stock_in_count"`
	StockOutCount   int64 `json:"stock_out_count"`
	AdjustmentCount int64 `json:"adjustment_count"`
	TodayMovements  int64 `json:"today_movements"`
}

// HistoryProduct is the product header of a stock history.
type HistoryProduct struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CurrentStock int    `json:"current_stock"`
}

// ProductHistory lists every movement of a product, newest first.
type ProductHistory struct {
	Product   HistoryProduct `json:"product"`
	Movements []Movement     `json:"movements"`
	Total     int            `json:"total"`
}

// LowStockAlert is handed to the Notifier after a movement leaves a product
// at or below its reorder level.
type LowStockAlert struct {
	ProductID   int64
	ProductName string
	Quantity    int
	MinStock    int
	Reference   string
}

// ErrProductMissing is returned by TxRepository.LockProduct for unknown ids.
var ErrProductMissing = errors.New("inventory: product not found")

// ErrInsufficientStock is the cause of the rule violation raised when an out
// movement exceeds the available quantity.
var ErrInsufficientStock = errors.New("inventory: insufficient stock")

// ErrMovementNotFound is returned for unknown movement ids.
var ErrMovementNotFound = internalShared.NotFound("Stock movement not found")
