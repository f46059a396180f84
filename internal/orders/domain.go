package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/stockroom/stockroom/internal/masterdata/shared"
	internalShared "github.com/stockroom/stockroom/internal/shared"
)

// Type distinguishes purchase orders from sale orders.
type Type string

const (
	TypePurchase Type = "purchase"
	TypeSale     Type = "sale"
)

// Prefix returns the order number prefix for the type.
func (t Type) Prefix() string {
	if t == TypeSale {
		return "SO"
	}
	return "PO"
}

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order is a purchase or sale order with its lines.
type Order struct {
	ID           int64                 `json:"id"`
	OrderNumber  string                `json:"order_number"`
	Type         Type                  `json:"type"`
	Status       Status                `json:"status"`
	TotalAmount  internalShared.Amount `json:"total_amount"`
	SupplierID   *int64                `json:"supplier_id"`
	CustomerName *string               `json:"customer_name"`
	Notes        *string               `json:"notes"`
	CreatedBy    *int64                `json:"created_by"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Items        []Item                `json:"items"`
	Supplier     *shared.SupplierRef   `json:"supplier"`
	Creator      *UserRef              `json:"creator"`
}

// Item is one order line. Total is always Quantity × Price.
type Item struct {
	ID          int64                 `json:"id"`
	OrderID     int64                 `json:"order_id"`
	ProductID   *int64                `json:"product_id"`
	ProductName string                `json:"product_name"`
	Quantity    int                   `json:"quantity"`
	Price       internalShared.Amount `json:"price"`
	Total       internalShared.Amount `json:"total"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// UserRef summarises the user who created an order.
type UserRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProductPrice is the catalogue data copied onto order lines.
type ProductPrice struct {
	ID        int64
	Name      string
	Price     internalShared.Amount
	CostPrice internalShared.Amount
}

// UnitPrice returns the cost price for purchases and the selling price for
// sales.
func (p ProductPrice) UnitPrice(t Type) internalShared.Amount {
	if t == TypePurchase {
		return p.CostPrice
	}
	return p.Price
}

// ItemInput is a requested order line.
type ItemInput struct {
	ProductID int64
	Quantity  int
}

// CreateOrderCommand creates a pending order.
type CreateOrderCommand struct {
	Type         Type
	SupplierID   *int64
	CustomerName *string
	Notes        *string
	Items        []ItemInput
	CreatedBy    int64
}

// UpdateStatusCommand moves an order to another status.
type UpdateStatusCommand struct {
	OrderID int64
	Status  Status
	ActorID int64
}

// CompleteOrderCommand completes an order and applies its stock movements.
type CompleteOrderCommand struct {
	OrderID int64
	ActorID int64
}

// StatusChange is the result of a status update.
type StatusChange struct {
	Order     Order  `json:"order"`
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

// ListFilter narrows the order list. Dates are inclusive calendar days.
type ListFilter struct {
	Type     Type
	Status   Status
	Search   string
	FromDate *time.Time
	ToDate   *time.Time
}

// CountFilter selects the orders an aggregate runs over.
type CountFilter struct {
	Type   Type
	Status Status
}

// Stats aggregates order counts and completed totals.
type Stats struct {
	TotalOrders     int64                 `json:"total_orders"`
	PendingOrders   int64                 `json:"pending_orders"`
	CompletedOrders int64                 `json:"completed_orders"`
	TotalPurchases  internalShared.Amount `json:"total_purchases"`
	TotalSales      internalShared.Amount `json:"total_sales"`
	PurchaseOrders  int64                 `json:"purchase_orders"`
	SaleOrders      int64                 `json:"sale_orders"`
}

// FormatOrderNumber renders e.g. PO-2026-0001.
func FormatOrderNumber(t Type, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%04d", t.Prefix(), year, seq)
}

const (
	msgOrderNotFound    = "Order not found"
	msgTerminalStatus   = "Cannot change status of completed or cancelled orders"
	msgDeleteNotPending = "Only pending orders can be deleted"
)

var (
	// ErrOrderNotFound is returned for unknown order ids.
	ErrOrderNotFound = internalShared.NotFound(msgOrderNotFound)
	// ErrInvalidStatus is the cause of rejected status transitions.
	ErrInvalidStatus = errors.New("invalid status transition")
	// ErrNotPending is the cause of a rejected delete.
	ErrNotPending = errors.New("order is not pending")
)
