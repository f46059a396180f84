package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom/stockroom/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	users  map[int64]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User)}
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *memoryRepo) FindByID(ctx context.Context, id int64) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *memoryRepo) Create(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, ErrEmailTaken
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = u
	return u, nil
}

func (r *memoryRepo) UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[cmd.UserID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if cmd.Name != nil {
		u.Name = *cmd.Name
	}
	if cmd.Phone != nil {
		u.Phone = cmd.Phone
	}
	if cmd.Avatar != nil {
		u.Avatar = cmd.Avatar
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *memoryRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryRepo()
	svc := NewService(repo, shared.NewTokenStore(client, "test:token", time.Hour), nil, nil)
	svc.cost = bcrypt.MinCost
	return svc, repo
}

func TestRegisterIssuesTokenForStaffUser(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterCommand{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, RoleStaff, session.User.Role)
	require.Equal(t, TokenType, session.TokenType)
	require.NotEqual(t, "secret1", repo.users[session.User.ID].PasswordHash)

	user, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, session.User.ID, user.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterCommand{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterCommand{Name: "Other", Email: "ADA@example.com", Password: "secret2"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"The email has already been taken."}, verr.Fields["email"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterCommand{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginCommand{Email: "ada@example.com", Password: "wrong"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginCommand{Email: "nobody@example.com", Password: "secret1"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	session, err := svc.Login(ctx, LoginCommand{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
}

func TestLogoutRevokesOnlyCurrentToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	first, err := svc.Register(ctx, RegisterCommand{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, LoginCommand{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, user.TokenID))

	_, err = svc.Authenticate(ctx, first.Token)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
	_, err = svc.Authenticate(ctx, second.Token)
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, err := svc.Register(ctx, RegisterCommand{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, ChangePasswordCommand{UserID: session.User.ID, CurrentPassword: "nope", NewPassword: "secret2"})
	require.ErrorIs(t, err, shared.ErrRuleViolation)
	require.EqualError(t, err, "Current password is incorrect")

	require.NoError(t, svc.ChangePassword(ctx, ChangePasswordCommand{UserID: session.User.ID, CurrentPassword: "secret1", NewPassword: "secret2"}))
	_, err = svc.Login(ctx, LoginCommand{Email: "ada@example.com", Password: "secret1"})
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginCommand{Email: "ada@example.com", Password: "secret2"})
	require.NoError(t, err)
}

func TestUpdateProfileIsPartial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	phone := "555-0100"
	session, err := svc.Register(ctx, RegisterCommand{Name: "Ada", Email: "ada@example.com", Password: "secret1", Phone: &phone})
	require.NoError(t, err)

	avatar := "https://cdn.example.com/ada.png"
	user, err := svc.UpdateProfile(ctx, UpdateProfileCommand{UserID: session.User.ID, Avatar: &avatar})
	require.NoError(t, err)
	require.Equal(t, "Ada", user.Name)
	require.Equal(t, phone, *user.Phone)
	require.Equal(t, avatar, *user.Avatar)
}
