package suppliers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom/stockroom/internal/masterdata/shared"
	"github.com/stockroom/stockroom/internal/platform/db"
)

const constraintEmail = "suppliers_email_key"

var (
	// ErrEmailTaken is returned when the unique email constraint fires.
	ErrEmailTaken = errors.New("suppliers: email already taken")
	// ErrInUse is returned when products or orders reference the supplier.
	ErrInUse = errors.New("suppliers: referenced by products or orders")
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Supplier, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, supplier Supplier) (Supplier, error)
	UpdateStatus(ctx context.Context, id int64, status string) (Supplier, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const (
	supplierColumns = `id, name, email, phone, address, city, country, status, rating, total_orders, created_at, updated_at`
	selectSuppliers = `SELECT ` + supplierColumns + ` FROM suppliers`
)

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.City, &s.Country,
		&s.Status, &s.Rating, &s.TotalOrders, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Supplier, error) {
	var where db.Where
	if filter.Status != "" {
		where.Add("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := db.Contains(filter.Search)
		where.Add("(name ILIKE ? OR email ILIKE ?)", pattern, pattern)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, selectSuppliers+where.SQL()+" ORDER BY name ASC", where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := []Supplier{}
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Supplier, error) {
	s, err := scanSupplier(db.Conn(ctx, r.pool).QueryRow(ctx, selectSuppliers+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, shared.ErrSupplierNotFound
	}
	return s, err
}

func (r *repository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	var taken bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM suppliers WHERE email = $1 AND id <> $2)`, email, excludeID).Scan(&taken)
	return taken, err
}

func (r *repository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	created, err := scanSupplier(db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO suppliers (name, email, phone, address, city, country, status, rating)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+supplierColumns,
		s.Name, s.Email, s.Phone, s.Address, s.City, s.Country, s.Status, s.Rating))
	if db.IsUniqueViolation(err, constraintEmail) {
		return Supplier{}, ErrEmailTaken
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, s Supplier) (Supplier, error) {
	updated, err := scanSupplier(db.Conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE suppliers
		 SET name = $1, email = $2, phone = $3, address = $4, city = $5, country = $6,
		     status = $7, rating = $8, updated_at = NOW()
		 WHERE id = $9
		 RETURNING `+supplierColumns,
		s.Name, s.Email, s.Phone, s.Address, s.City, s.Country, s.Status, s.Rating, s.ID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Supplier{}, shared.ErrSupplierNotFound
	case db.IsUniqueViolation(err, constraintEmail):
		return Supplier{}, ErrEmailTaken
	}
	return updated, err
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status string) (Supplier, error) {
	updated, err := scanSupplier(db.Conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE suppliers SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING `+supplierColumns,
		status, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, shared.ErrSupplierNotFound
	}
	return updated, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err, "") {
		return ErrInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrSupplierNotFound
	}
	return nil
}
