package products

import (
	"context"
	"errors"
	"strings"

	internalShared "github.com/stockroom/stockroom/internal/shared"
)

const (
	msgSKUTaken        = "This SKU already exists"
	msgCategoryMissing = "Selected category does not exist"
	msgSupplierMissing = "Selected supplier does not exist"
	msgDeleteWithStock = "Cannot delete product with existing stock. Please adjust stock to 0 first."
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

// LowStock lists products at or below their reorder level that still have
// stock, lowest quantity first.
func (s *Service) LowStock(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx, ListFilter{StockStatus: StockLow, SortBy: "quantity", SortOrder: "asc"})
}

// OutOfStock lists products with zero quantity.
func (s *Service) OutOfStock(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx, ListFilter{StockStatus: StockOutOfStock, SortBy: "name", SortOrder: "asc"})
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, cmd SaveCommand) (Product, error) {
	product := Product{
		Status:   StatusActive,
		MinStock: DefaultMinStock,
		MaxStock: DefaultMaxStock,
	}
	apply(&product, cmd)
	if err := s.validate(ctx, product); err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, product)
	if errors.Is(err, ErrSKUTaken) {
		return Product{}, internalShared.FieldError("sku", msgSKUTaken)
	}
	return created, err
}

func (s *Service) Update(ctx context.Context, cmd SaveCommand) (Product, error) {
	product, err := s.repo.Get(ctx, cmd.ID)
	if err != nil {
		return Product{}, err
	}
	apply(&product, cmd)
	if err := s.validate(ctx, product); err != nil {
		return Product{}, err
	}
	updated, err := s.repo.Update(ctx, product)
	if errors.Is(err, ErrSKUTaken) {
		return Product{}, internalShared.FieldError("sku", msgSKUTaken)
	}
	return updated, err
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrHasStock) {
		return internalShared.WrapViolation(err, msgDeleteWithStock)
	}
	return err
}

// validate runs the checks that need the database: unique SKU and existing
// category and supplier.
func (s *Service) validate(ctx context.Context, p Product) error {
	verr := internalShared.NewValidationError()

	taken, err := s.repo.SKUTaken(ctx, p.SKU, p.ID)
	if err != nil {
		return err
	}
	if taken {
		verr.Add("sku", msgSKUTaken)
	}

	ok, err := s.repo.CategoryExists(ctx, p.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		verr.Add("category_id", msgCategoryMissing)
	}

	ok, err = s.repo.SupplierExists(ctx, p.SupplierID)
	if err != nil {
		return err
	}
	if !ok {
		verr.Add("supplier_id", msgSupplierMissing)
	}
	return verr.OrNil()
}

func apply(p *Product, cmd SaveCommand) {
	p.SKU = strings.TrimSpace(cmd.SKU)
	p.Name = strings.TrimSpace(cmd.Name)
	p.Description = cmd.Description
	p.CategoryID = cmd.CategoryID
	p.SupplierID = cmd.SupplierID
	p.Price = cmd.Price
	p.CostPrice = cmd.CostPrice
	p.Location = cmd.Location
	p.Image = cmd.Image
	if cmd.Quantity != nil {
		p.Quantity = *cmd.Quantity
	}
	if cmd.MinStock != nil {
		p.MinStock = *cmd.MinStock
	}
	if cmd.MaxStock != nil {
		p.MaxStock = *cmd.MaxStock
	}
	if cmd.Status != nil && *cmd.Status != "" {
		p.Status = *cmd.Status
	}
	p.computeDerived()
}
