package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom/stockroom/internal/platform/db"
)

const constraintEmail = "users_email_key"

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, user User) (User, error)
	UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectUsers = `SELECT id, name, email, password_hash, role, phone, avatar, created_at, updated_at FROM users`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// FindByEmail fetches a user by email, case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, selectUsers+` WHERE lower(email) = lower($1)`, email))
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (User, error) {
	return scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, selectUsers+` WHERE id = $1`, id))
}

// Create inserts a user and returns it with generated columns.
func (r *PGRepository) Create(ctx context.Context, u User) (User, error) {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
INSERT INTO users (name, email, password_hash, role, phone)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Phone).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if db.IsUniqueViolation(err, constraintEmail) {
		return User{}, ErrEmailTaken
	}
	return u, err
}

// UpdateProfile overwrites only the non-nil fields.
func (r *PGRepository) UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (User, error) {
	return scanUser(db.Conn(ctx, r.pool).QueryRow(ctx, `
UPDATE users SET
    name = COALESCE($2, name),
    phone = COALESCE($3, phone),
    avatar = COALESCE($4, avatar),
    updated_at = NOW()
WHERE id = $1
RETURNING id, name, email, password_hash, role, phone, avatar, created_at, updated_at`,
		cmd.UserID, cmd.Name, cmd.Phone, cmd.Avatar))
}

// UpdatePassword stores a new password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
