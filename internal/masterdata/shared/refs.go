package shared

// CategoryRef is the category summary embedded in product responses.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SupplierRef is the supplier summary embedded in product and order
// responses.
type SupplierRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
