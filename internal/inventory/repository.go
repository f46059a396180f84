package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom/stockroom/internal/masterdata/shared"
	"github.com/stockroom/stockroom/internal/platform/db"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filter ListFilter) ([]Movement, error)
	Get(ctx context.Context, id int64) (Movement, error)
	Stats(ctx context.Context, dayStart time.Time) (Stats, error)
	ProductStock(ctx context.Context, productID int64) (ProductStock, error)
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	LockProduct(ctx context.Context, productID int64) (ProductStock, error)
	SetQuantity(ctx context.Context, productID int64, quantity int) error
	InsertMovement(ctx context.Context, movement Movement) (Movement, error)
}

// Repository persists stock movements in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	conn db.DBTX
}

// WithTx executes the callback inside a transaction, joining the one already
// carried by ctx when the caller opened it.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		return fn(ctx, &txRepo{conn: db.Conn(ctx, r.pool)})
	})
}

const selectMovements = `
SELECT m.id, m.product_id, m.product_name, m.type, m.quantity, m.stock_before, m.stock_after,
       m.reason, m.reference, m.created_by, m.created_at, m.updated_at,
       p.sku, p.name, u.name
FROM stock_movements m
LEFT JOIN products p ON p.id = m.product_id
LEFT JOIN users u ON u.id = m.created_by`

func scanMovement(row pgx.Row) (Movement, error) {
	var (
		m           Movement
		productSKU  *string
		productName *string
		userName    *string
	)
	err := row.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.Type, &m.Quantity, &m.StockBefore, &m.StockAfter,
		&m.Reason, &m.Reference, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
		&productSKU, &productName, &userName)
	if err != nil {
		return Movement{}, err
	}
	if m.ProductID != nil && productName != nil {
		m.Product = &ProductRef{ID: *m.ProductID, Name: *productName}
		if productSKU != nil {
			m.Product.SKU = *productSKU
		}
	}
	if m.CreatedBy != nil && userName != nil {
		m.Creator = &UserRef{ID: *m.CreatedBy, Name: *userName}
	}
	return m, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Movement, error) {
	var where db.Where
	if filter.ProductID != nil {
		where.Add("m.product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		where.Add("m.type = ?", string(filter.Type))
	}
	if filter.FromDate != nil {
		where.Add("m.created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		where.Add("m.created_at < ?", filter.ToDate.AddDate(0, 0, 1))
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, selectMovements+where.SQL()+" ORDER BY m.created_at DESC, m.id DESC", where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := []Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Movement, error) {
	m, err := scanMovement(db.Conn(ctx, r.pool).QueryRow(ctx, selectMovements+` WHERE m.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Movement{}, ErrMovementNotFound
	}
	return m, err
}

func (r *Repository) Stats(ctx context.Context, dayStart time.Time) (Stats, error) {
	var s Stats
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE type = 'in'),
       COUNT(*) FILTER (WHERE type = 'out'),
       COUNT(*) FILTER (WHERE type = 'adjustment'),
       COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2)
FROM stock_movements`, dayStart, dayStart.AddDate(0, 0, 1)).
		Scan(&s.TotalMovements, &s.StockInCount, &s.StockOutCount, &s.AdjustmentCount, &s.TodayMovements)
	return s, err
}

func (r *Repository) ProductStock(ctx context.Context, productID int64) (ProductStock, error) {
	p, err := scanProductStock(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name, quantity, min_stock FROM products WHERE id = $1`, productID))
	if errors.Is(err, ErrProductMissing) {
		return ProductStock{}, shared.ErrProductNotFound
	}
	return p, err
}

func (r *txRepo) LockProduct(ctx context.Context, productID int64) (ProductStock, error) {
	return scanProductStock(r.conn.QueryRow(ctx,
		`SELECT id, name, quantity, min_stock FROM products WHERE id = $1 FOR UPDATE`, productID))
}

func (r *txRepo) SetQuantity(ctx context.Context, productID int64, quantity int) error {
	_, err := r.conn.Exec(ctx, `UPDATE products SET quantity = $1, updated_at = NOW() WHERE id = $2`, quantity, productID)
	return err
}

func (r *txRepo) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	err := r.conn.QueryRow(ctx, `
INSERT INTO stock_movements (product_id, product_name, type, quantity, stock_before, stock_after, reason, reference, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at, updated_at`,
		m.ProductID, m.ProductName, string(m.Type), m.Quantity, m.StockBefore, m.StockAfter, m.Reason, m.Reference, m.CreatedBy).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func scanProductStock(row pgx.Row) (ProductStock, error) {
	var p ProductStock
	err := row.Scan(&p.ID, &p.Name, &p.Quantity, &p.MinStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductStock{}, ErrProductMissing
	}
	return p, err
}
