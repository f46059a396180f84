package products

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockroom/stockroom/internal/masterdata/shared"
	internalShared "github.com/stockroom/stockroom/internal/shared"
)

// Product status values.
const (
	StatusActive       = "active"
	StatusInactive     = "inactive"
	StatusDiscontinued = "discontinued"
)

// Stock status classification.
const (
	StockInStock    = "in_stock"
	StockLow        = "low_stock"
	StockOutOfStock = "out_of_stock"
)

// Defaults applied when a product is created without stock thresholds.
const (
	DefaultMinStock = 10
	DefaultMaxStock = 100
)

type Product struct {
	ID             int64                 `json:"id"`
	SKU            string                `json:"sku"`
	Name           string                `json:"name"`
	Description    *string               `json:"description"`
	CategoryID     int64                 `json:"category_id"`
	SupplierID     int64                 `json:"supplier_id"`
	Price          internalShared.Amount `json:"price"`
	CostPrice      internalShared.Amount `json:"cost_price"`
	Quantity       int                   `json:"quantity"`
	MinStock       int                   `json:"min_stock"`
	MaxStock       int                   `json:"max_stock"`
	Location       *string               `json:"location"`
	Image          *string               `json:"image"`
	Status         string                `json:"status"`
	StockStatus    string                `json:"stock_status"`
	InventoryValue internalShared.Amount `json:"inventory_value"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Category       *shared.CategoryRef   `json:"category,omitempty"`
	Supplier       *shared.SupplierRef   `json:"supplier,omitempty"`
}

// StockStatusOf classifies an on-hand quantity against the reorder level.
func StockStatusOf(quantity, minStock int) string {
	switch {
	case quantity == 0:
		return StockOutOfStock
	case quantity <= minStock:
		return StockLow
	default:
		return StockInStock
	}
}

// InventoryValueOf returns quantity × cost price.
func InventoryValueOf(quantity int, costPrice internalShared.Amount) internalShared.Amount {
	return internalShared.NewAmount(costPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

func (p *Product) computeDerived() {
	p.StockStatus = StockStatusOf(p.Quantity, p.MinStock)
	p.InventoryValue = InventoryValueOf(p.Quantity, p.CostPrice)
}

// ListFilter narrows and orders the product list. Zero values are ignored;
// SortBy is restricted to a whitelist of columns.
type ListFilter struct {
	CategoryID  *int64
	SupplierID  *int64
	Status      string
	StockStatus string
	Search      string
	SortBy      string
	SortOrder   string
}

// SaveCommand carries the fields accepted on create and update. Nil
// optional fields take defaults on create and keep stored values on
// update.
type SaveCommand struct {
	ID          int64
	SKU         string
	Name        string
	Description *string
	CategoryID  int64
	SupplierID  int64
	Price       internalShared.Amount
	CostPrice   internalShared.Amount
	Quantity    *int
	MinStock    *int
	MaxStock    *int
	Location    *string
	Image       *string
	Status      *string
}
