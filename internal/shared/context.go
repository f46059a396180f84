package shared

import "context"

// CurrentUser is the authenticated principal attached to a request.
type CurrentUser struct {
	ID      int64
	Name    string
	Email   string
	Role    string
	TokenID string
}

type userContextKey struct{}

// ContextWithUser stores the authenticated user in context.
func ContextWithUser(ctx context.Context, user *CurrentUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) *CurrentUser {
	user, _ := ctx.Value(userContextKey{}).(*CurrentUser)
	return user
}

// ActorID returns the authenticated user's id or zero.
func ActorID(ctx context.Context) int64 {
	if user := UserFromContext(ctx); user != nil {
		return user.ID
	}
	return 0
}
