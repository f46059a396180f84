package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom/stockroom/internal/observability"
	"github.com/stockroom/stockroom/internal/shared"
)

// TokenStore issues, resolves and revokes bearer tokens.
type TokenStore interface {
	Issue(ctx context.Context, userID int64) (shared.IssuedToken, error)
	Resolve(ctx context.Context, plain string) (shared.TokenClaims, error)
	Revoke(ctx context.Context, id string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	tokens  TokenStore
	logger  *slog.Logger
	metrics *observability.Metrics
	cost    int
}

// NewService constructs a new Service. metrics may be nil.
func NewService(repo Repository, tokens TokenStore, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, logger: logger, metrics: metrics, cost: bcrypt.DefaultCost}
}

// Register creates a staff user and issues its first token.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (session Session, err error) {
	defer func() { s.metrics.RecordAuth("register", err) }()

	email := strings.TrimSpace(cmd.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return Session{}, emailTaken()
	} else if !errors.Is(err, ErrUserNotFound) {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("auth: hash password: %w", err)
	}
	user, err := s.repo.Create(ctx, User{
		Name:         cmd.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleStaff,
		Phone:        cmd.Phone,
	})
	if errors.Is(err, ErrEmailTaken) {
		return Session{}, emailTaken()
	}
	if err != nil {
		return Session{}, fmt.Errorf("auth: create user: %w", err)
	}
	return s.issue(ctx, user)
}

// Login verifies credentials. Every failure is reported as invalid
// credentials so callers cannot probe for registered emails.
func (s *Service) Login(ctx context.Context, cmd LoginCommand) (session Session, err error) {
	defer func() { s.metrics.RecordAuth("login", err) }()

	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(cmd.Email))
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, shared.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.Password)); err != nil {
		return Session{}, shared.ErrInvalidCredentials
	}
	return s.issue(ctx, user)
}

// Logout revokes the token used for the current request only.
func (s *Service) Logout(ctx context.Context, tokenID string) (err error) {
	defer func() { s.metrics.RecordAuth("logout", err) }()
	return s.tokens.Revoke(ctx, tokenID)
}

// Authenticate resolves a bearer token to the current user.
func (s *Service) Authenticate(ctx context.Context, plain string) (*shared.CurrentUser, error) {
	claims, err := s.tokens.Resolve(ctx, plain)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, shared.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return &shared.CurrentUser{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Role:    user.Role,
		TokenID: claims.ID,
	}, nil
}

// Profile returns the stored user.
func (s *Service) Profile(ctx context.Context, userID int64) (User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, shared.ErrUnauthenticated
	}
	return user, err
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (User, error) {
	user, err := s.repo.UpdateProfile(ctx, cmd)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, shared.ErrUnauthenticated
	}
	return user, err
}

// ChangePassword replaces the password hash. Issued tokens stay valid.
func (s *Service) ChangePassword(ctx context.Context, cmd ChangePasswordCommand) error {
	user, err := s.repo.FindByID(ctx, cmd.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return shared.ErrUnauthenticated
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.CurrentPassword)); err != nil {
		return shared.WrapViolation(ErrWrongPassword, "Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.NewPassword), s.cost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}
	s.logger.Info("password changed", slog.Int64("user_id", user.ID))
	return nil
}

func (s *Service) issue(ctx context.Context, user User) (Session, error) {
	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("auth: issue token: %w", err)
	}
	return Session{User: user, Token: token.PlainText, TokenType: TokenType}, nil
}

func emailTaken() error {
	return shared.FieldError("email", "The email has already been taken.")
}
