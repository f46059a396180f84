package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom/stockroom/internal/masterdata/shared"
	"github.com/stockroom/stockroom/internal/platform/db"
)

const (
	constraintName       = "categories_name_key"
	constraintProductsFK = "products_category_id_fkey"
)

var (
	// ErrNameTaken is returned when the unique name constraint fires.
	ErrNameTaken = errors.New("categories: name already taken")
	// ErrInUse is returned when products still reference the category.
	ErrInUse = errors.New("categories: referenced by products")
)

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, category Category) (Category, error)
	Update(ctx context.Context, category Category) (Category, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectColumns = `SELECT id, name, description, created_at, updated_at FROM categories`

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Category, error) {
	var where db.Where
	if filter.Search != "" {
		where.Add("name ILIKE ?", db.Contains(filter.Search))
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, selectColumns+where.SQL()+" ORDER BY name ASC", where.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := db.Conn(ctx, r.pool).QueryRow(ctx, selectColumns+` WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, shared.ErrCategoryNotFound
	}
	return c, err
}

func (r *repository) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE name = $1 AND id <> $2)`, name, excludeID).Scan(&taken)
	return taken, err
}

func (r *repository) Create(ctx context.Context, category Category) (Category, error) {
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		category.Name, category.Description).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if db.IsUniqueViolation(err, constraintName) {
		return Category{}, ErrNameTaken
	}
	return category, err
}

func (r *repository) Update(ctx context.Context, category Category) (Category, error) {
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE categories SET name = $1, description = $2, updated_at = NOW() WHERE id = $3 RETURNING created_at, updated_at`,
		category.Name, category.Description, category.ID).Scan(&category.CreatedAt, &category.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Category{}, shared.ErrCategoryNotFound
	case db.IsUniqueViolation(err, constraintName):
		return Category{}, ErrNameTaken
	}
	return category, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err, constraintProductsFK) {
		return ErrInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrCategoryNotFound
	}
	return nil
}
