package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom/stockroom/internal/masterdata/shared"
	"github.com/stockroom/stockroom/internal/platform/db"
)

const constraintSKU = "products_sku_key"

var (
	// ErrSKUTaken is returned when the unique SKU constraint fires.
	ErrSKUTaken = errors.New("products: sku already taken")
	// ErrHasStock is returned when deleting a product with quantity > 0.
	ErrHasStock = errors.New("products: product has stock")
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	SKUTaken(ctx context.Context, sku string, excludeID int64) (bool, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
	SupplierExists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectProducts = `
SELECT p.id, p.sku, p.name, p.description, p.category_id, p.supplier_id, p.price, p.cost_price,
       p.quantity, p.min_stock, p.max_stock, p.location, p.image, p.status, p.created_at, p.updated_at,
       c.name, s.name, s.email
FROM products p
JOIN categories c ON c.id = p.category_id
JOIN suppliers s ON s.id = p.supplier_id`

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p        Product
		category shared.CategoryRef
		supplier shared.SupplierRef
	)
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.SupplierID, &p.Price, &p.CostPrice,
		&p.Quantity, &p.MinStock, &p.MaxStock, &p.Location, &p.Image, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		&category.Name, &supplier.Name, &supplier.Email)
	if err != nil {
		return Product{}, err
	}
	category.ID = p.CategoryID
	supplier.ID = p.SupplierID
	p.Category = &category
	p.Supplier = &supplier
	p.computeDerived()
	return p, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	where := listWhere(filter)
	query := selectProducts + where.SQL() + " ORDER BY " + sortOrder(filter.SortBy, filter.SortOrder) + ", p.id"
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(db.Conn(ctx, r.pool).QueryRow(ctx, selectProducts+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrProductNotFound
	}
	return p, err
}

func (r *repository) SKUTaken(ctx context.Context, sku string, excludeID int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1 AND id <> $2)`, sku, excludeID)
}

func (r *repository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id)
}

func (r *repository) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1)`, id)
}

func (r *repository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&ok)
	return ok, err
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	var id int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO products (sku, name, description, category_id, supplier_id, price, cost_price,
		                       quantity, min_stock, max_stock, location, image, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		p.SKU, p.Name, p.Description, p.CategoryID, p.SupplierID, p.Price, p.CostPrice,
		p.Quantity, p.MinStock, p.MaxStock, p.Location, p.Image, p.Status).Scan(&id)
	if db.IsUniqueViolation(err, constraintSKU) {
		return Product{}, ErrSKUTaken
	}
	if err != nil {
		return Product{}, err
	}
	return r.Get(ctx, id)
}

func (r *repository) Update(ctx context.Context, p Product) (Product, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE products
		 SET sku = $1, name = $2, description = $3, category_id = $4, supplier_id = $5, price = $6,
		     cost_price = $7, quantity = $8, min_stock = $9, max_stock = $10, location = $11,
		     image = $12, status = $13, updated_at = NOW()
		 WHERE id = $14`,
		p.SKU, p.Name, p.Description, p.CategoryID, p.SupplierID, p.Price, p.CostPrice,
		p.Quantity, p.MinStock, p.MaxStock, p.Location, p.Image, p.Status, p.ID)
	if db.IsUniqueViolation(err, constraintSKU) {
		return Product{}, ErrSKUTaken
	}
	if err != nil {
		return Product{}, err
	}
	if tag.RowsAffected() == 0 {
		return Product{}, shared.ErrProductNotFound
	}
	return r.Get(ctx, p.ID)
}

// Delete removes the product only while its quantity is zero.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM products WHERE id = $1 AND quantity = 0`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	found, err := r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id)
	if err != nil {
		return err
	}
	if !found {
		return shared.ErrProductNotFound
	}
	return ErrHasStock
}

// listWhere translates filter into bound SQL conditions.
func listWhere(filter ListFilter) db.Where {
	var where db.Where
	if filter.CategoryID != nil {
		where.Add("p.category_id = ?", *filter.CategoryID)
	}
	if filter.SupplierID != nil {
		where.Add("p.supplier_id = ?", *filter.SupplierID)
	}
	if filter.Status != "" {
		where.Add("p.status = ?", filter.Status)
	}
	switch filter.StockStatus {
	case StockLow:
		where.Add("(p.quantity > 0 AND p.quantity <= p.min_stock)")
	case StockOutOfStock:
		where.Add("p.quantity = 0")
	case StockInStock:
		where.Add("p.quantity > p.min_stock")
	}
	if filter.Search != "" {
		pattern := db.Contains(filter.Search)
		where.Add("(p.name ILIKE ? OR p.sku ILIKE ?)", pattern, pattern)
	}
	return where
}

func sortOrder(sortBy, sortDir string) string {
	dir := "DESC"
	if shared.Direction(sortDir, shared.SortDesc) == shared.SortAsc {
		dir = "ASC"
	}
	switch sortBy {
	case "name", "sku", "price", "cost_price", "quantity", "updated_at":
		return "p." + sortBy + " " + dir
	default:
		return "p.created_at " + dir
	}
}
