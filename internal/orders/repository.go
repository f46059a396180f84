package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom/stockroom/internal/masterdata/shared"
	"github.com/stockroom/stockroom/internal/platform/db"
	internalShared "github.com/stockroom/stockroom/internal/shared"
)

// RepositoryPort abstracts order persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	Get(ctx context.Context, id int64) (Order, error)
	ProductsByID(ctx context.Context, ids []int64) (map[int64]ProductPrice, error)
	SupplierExists(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context, filter CountFilter) (int64, error)
	SumTotal(ctx context.Context, filter CountFilter) (internalShared.Amount, error)
}

// TxRepository exposes the writes that must share a transaction.
type TxRepository interface {
	NextSequence(ctx context.Context, t Type, year int) (int, error)
	Insert(ctx context.Context, order Order) (Order, error)
	InsertItem(ctx context.Context, item Item) (Item, error)
	LockOrder(ctx context.Context, id int64) (Order, error)
	SetStatus(ctx context.Context, id int64, status Status) error
	IncrementSupplierOrders(ctx context.Context, supplierID int64) error
	Delete(ctx context.Context, id int64) error
}

// Repository persists orders in PostgreSQL.
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

// WithTx runs fn in a transaction, joining one already carried by ctx.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		return fn(ctx, &txRepo{conn: db.Conn(ctx, r.pool)})
	})
}

const orderColumns = `o.id, o.order_number, o.type, o.status, o.total_amount, o.supplier_id, o.customer_name,
       o.notes, o.created_by, o.created_at, o.updated_at`

const selectOrders = `
SELECT ` + orderColumns + `,
       s.name, s.email, u.name, u.email
FROM orders o
LEFT JOIN suppliers s ON s.id = o.supplier_id
LEFT JOIN users u ON u.id = o.created_by`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                        Order
		supplierName, supplierEm *string
		userName, userEmail      *string
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.Type, &o.Status, &o.TotalAmount, &o.SupplierID, &o.CustomerName,
		&o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
		&supplierName, &supplierEm, &userName, &userEmail)
	if err != nil {
		return Order{}, err
	}
	if o.SupplierID != nil && supplierName != nil {
		o.Supplier = &shared.SupplierRef{ID: *o.SupplierID, Name: *supplierName}
		if supplierEm != nil {
			o.Supplier.Email = *supplierEm
		}
	}
	if o.CreatedBy != nil && userName != nil {
		o.Creator = &UserRef{ID: *o.CreatedBy, Name: *userName}
		if userEmail != nil {
			o.Creator.Email = *userEmail
		}
	}
	o.Items = []Item{}
	return o, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	var where db.Where
	if filter.Type != "" {
		where.Add("o.type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		where.Add("o.status = ?", string(filter.Status))
	}
	if filter.Search != "" {
		pattern := db.Contains(filter.Search)
		where.Add("(o.order_number ILIKE ? OR o.customer_name ILIKE ?)", pattern, pattern)
	}
	if filter.FromDate != nil {
		where.Add("o.created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		where.Add("o.created_at < ?", filter.ToDate.AddDate(0, 0, 1))
	}

	conn := db.Conn(ctx, r.pool)
	rows, err := conn.Query(ctx, selectOrders+where.SQL()+" ORDER BY o.created_at DESC, o.id DESC", where.Args()...)
	if err != nil {
		return nil, err
	}
	orders := []Order{}
	index := make(map[int64]int)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := loadItems(ctx, conn, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return orders, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (Order, error) {
	conn := db.Conn(ctx, r.pool)
	o, err := scanOrder(conn.QueryRow(ctx, selectOrders+` WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	items, err := loadItems(ctx, conn, []int64{id})
	if err != nil {
		return Order{}, err
	}
	o.Items = append(o.Items, items...)
	return o, nil
}

func (r *Repository) ProductsByID(ctx context.Context, ids []int64) (map[int64]ProductPrice, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT id, name, price, cost_price FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[int64]ProductPrice, len(ids))
	for rows.Next() {
		var p ProductPrice
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CostPrice); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func (r *Repository) SupplierExists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func countWhere(filter CountFilter) db.Where {
	var where db.Where
	if filter.Type != "" {
		where.Add("type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		where.Add("status = ?", string(filter.Status))
	}
	return where
}

func (r *Repository) Count(ctx context.Context, filter CountFilter) (int64, error) {
	where := countWhere(filter)
	var n int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where.SQL(), where.Args()...).Scan(&n)
	return n, err
}

func (r *Repository) SumTotal(ctx context.Context, filter CountFilter) (internalShared.Amount, error) {
	where := countWhere(filter)
	var sum internalShared.Amount
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM orders`+where.SQL(), where.Args()...).Scan(&sum)
	return sum, err
}

// NextSequence increments the (type, year) counter. The upsert takes a row
// lock that serialises concurrent creators until the transaction ends.
func (r *txRepo) NextSequence(ctx context.Context, t Type, year int) (int, error) {
	var seq int
	err := r.conn.QueryRow(ctx, `
INSERT INTO order_sequences (order_type, year, last_value) VALUES ($1, $2, 1)
ON CONFLICT (order_type, year) DO UPDATE SET last_value = order_sequences.last_value + 1
RETURNING last_value`, string(t), year).Scan(&seq)
	return seq, err
}

func (r *txRepo) Insert(ctx context.Context, o Order) (Order, error) {
	err := r.conn.QueryRow(ctx, `
INSERT INTO orders (order_number, type, status, total_amount, supplier_id, customer_name, notes, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`,
		o.OrderNumber, string(o.Type), string(o.Status), o.TotalAmount, o.SupplierID, o.CustomerName, o.Notes, o.CreatedBy).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *txRepo) InsertItem(ctx context.Context, item Item) (Item, error) {
	err := r.conn.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, product_name, quantity, price, total)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at, updated_at`,
		item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.Price, item.Total).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

// LockOrder loads the order and its items, holding a row lock on the order.
func (r *txRepo) LockOrder(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.conn.QueryRow(ctx, selectOrders+` WHERE o.id = $1 FOR UPDATE OF o`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	items, err := loadItems(ctx, r.conn, []int64{id})
	if err != nil {
		return Order{}, err
	}
	o.Items = append(o.Items, items...)
	return o, nil
}

func (r *txRepo) SetStatus(ctx context.Context, id int64, status Status) error {
	_, err := r.conn.Exec(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	return err
}

func (r *txRepo) IncrementSupplierOrders(ctx context.Context, supplierID int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE suppliers SET total_orders = total_orders + 1 WHERE id = $1`, supplierID)
	return err
}

func (r *txRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return err
}

func loadItems(ctx context.Context, conn db.DBTX, orderIDs []int64) ([]Item, error) {
	rows, err := conn.Query(ctx, `
SELECT id, order_id, product_id, product_name, quantity, price, total, created_at, updated_at
FROM order_items WHERE order_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("orders: load items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.Total,
			&it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
