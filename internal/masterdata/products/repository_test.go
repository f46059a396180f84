package products

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortOrderWhitelist(t *testing.T) {
	cases := []struct {
		name    string
		sortBy  string
		sortDir string
		want    string
	}{
		{"default", "", "", "p.created_at DESC"},
		{"ascending name", "name", "asc", "p.name ASC"},
		{"descending price", "price", "desc", "p.price DESC"},
		{"cost price", "cost_price", "asc", "p.cost_price ASC"},
		{"unknown column", "supplier_id", "asc", "p.created_at ASC"},
		{"injected column", "name; DROP TABLE products; --", "asc", "p.created_at ASC"},
		{"injected direction", "quantity", "asc; DELETE FROM products", "p.quantity DESC"},
		{"case sensitive", "NAME", "ASC", "p.created_at DESC"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, sortOrder(tc.sortBy, tc.sortDir))
		})
	}
}

func TestListWhereStockStatus(t *testing.T) {
	cases := map[string]string{
		StockLow:        " WHERE (p.quantity > 0 AND p.quantity <= p.min_stock)",
		StockOutOfStock: " WHERE p.quantity = 0",
		StockInStock:    " WHERE p.quantity > p.min_stock",
		"bogus":         "",
	}
	for status, want := range cases {
		t.Run(status, func(t *testing.T) {
			where := listWhere(ListFilter{StockStatus: status})
			require.Equal(t, want, where.SQL())
			require.Empty(t, where.Args())
		})
	}
}

func TestListWhereBindsFilters(t *testing.T) {
	category, supplier := int64(3), int64(9)
	where := listWhere(ListFilter{
		CategoryID:  &category,
		SupplierID:  &supplier,
		Status:      StatusActive,
		StockStatus: StockLow,
		Search:      "50%_off",
	})

	require.Equal(t,
		" WHERE p.category_id = $1 AND p.supplier_id = $2 AND p.status = $3"+
			" AND (p.quantity > 0 AND p.quantity <= p.min_stock)"+
			" AND (p.name ILIKE $4 OR p.sku ILIKE $5)",
		where.SQL())
	require.Equal(t, []any{int64(3), int64(9), StatusActive, `%50\%\_off%`, `%50\%\_off%`}, where.Args())
}
