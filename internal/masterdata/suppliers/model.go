package suppliers

import "time"

// Supplier status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Supplier struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Status      string    `json:"status"`
	Rating      float64   `json:"rating"`
	TotalOrders int       `json:"total_orders"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter narrows the supplier list. Empty fields are ignored.
type ListFilter struct {
	Status string
	Search string
}

// SaveCommand carries the fields accepted on create and update. A nil
// Status or Rating keeps the default on create and the stored value on
// update.
type SaveCommand struct {
	ID      int64
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Country string
	Status  *string
	Rating  *float64
}

// UpdateStatusCommand switches a supplier between active and inactive.
type UpdateStatusCommand struct {
	ID     int64
	Status string
}
