package shared

import internalShared "github.com/stockroom/stockroom/internal/shared"

// Public messages shared by the catalogue resources.
const (
	MsgCategoryNotFound = "Category not found"
	MsgSupplierNotFound = "Supplier not found"
	MsgProductNotFound  = "Product not found"
)

var (
	ErrCategoryNotFound = internalShared.NotFound(MsgCategoryNotFound)
	ErrSupplierNotFound = internalShared.NotFound(MsgSupplierNotFound)
	ErrProductNotFound  = internalShared.NotFound(MsgProductNotFound)
)
