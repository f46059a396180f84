package categories

import "time"

// Category groups products.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter narrows the category list.
type ListFilter struct {
	Search string
}

// CreateCommand creates a category.
type CreateCommand struct {
	Name        string
	Description *string
}

// UpdateCommand replaces the editable fields of a category.
type UpdateCommand struct {
	ID          int64
	Name        string
	Description *string
}
