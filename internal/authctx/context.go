package authctx

import "context"

type keyType string

const (
	userIDKey keyType = "user_id"
	roleKey   keyType = "user_role"
)

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, userID int64, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// UserID returns the authenticated user id, if any.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// Role returns the authenticated user role, if any.
func Role(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	return role, ok
}

// IsAdmin reports whether the context carries an admin identity.
func IsAdmin(ctx context.Context) bool {
	role, ok := Role(ctx)
	return ok && role == "admin"
}
