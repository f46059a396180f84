package auth

import (
	"errors"
	"time"
)

// RoleStaff is assigned to every self-registered user.
const RoleStaff = "staff"

// TokenType is returned next to every issued token.
const TokenType = "Bearer"

// User represents an API user account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Phone        *string   `json:"phone"`
	Avatar       *string   `json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterCommand creates a staff account.
type RegisterCommand struct {
	Name     string
	Email    string
	Password string
	Phone    *string
}

// LoginCommand exchanges credentials for a token.
type LoginCommand struct {
	Email    string
	Password string
}

// UpdateProfileCommand changes the supplied profile fields only.
type UpdateProfileCommand struct {
	UserID int64
	Name   *string
	Phone  *string
	Avatar *string
}

// ChangePasswordCommand replaces the password after checking the current one.
type ChangePasswordCommand struct {
	UserID          int64
	CurrentPassword string
	NewPassword     string
}

// Session is the body returned by register and login.
type Session struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

var (
	// ErrUserNotFound is returned by repository lookups.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrEmailTaken is returned when the unique email constraint fires.
	ErrEmailTaken = errors.New("auth: email already taken")
	// ErrWrongPassword is the cause of a rejected password change.
	ErrWrongPassword = errors.New("auth: current password mismatch")
)
