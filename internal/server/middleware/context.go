package middleware

import (
	"context"

	"cloudpad-admin/backend/internal/account/domain"
)

type contextKey struct{ name string }

var (
	accountIDKey    = contextKey{"account_id"}
	roleKey         = contextKey{"role"}
	refreshTokenKey = contextKey{"refresh_token"}
)

// WithIdentity returns a context carrying the authenticated account id and
// role. Handlers and guards read these via GetAccountID and GetRole.
func WithIdentity(ctx context.Context, accountID string, role domain.Role) context.Context {
	ctx = context.WithValue(ctx, accountIDKey, accountID)
	ctx = context.WithValue(ctx, roleKey, role)
	return ctx
}

// GetAccountID returns the account id from context and true if set; otherwise "", false.
func GetAccountID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accountIDKey).(string)
	return v, ok
}

// GetRole returns the role from context and true if set; otherwise "", false.
func GetRole(ctx context.Context) (domain.Role, bool) {
	v, ok := ctx.Value(roleKey).(domain.Role)
	return v, ok
}

// WithRefreshToken stores the raw presented refresh token for the refresh
// handler, which must compare it against the stored session hash. Set by
// RequireRefresh.
func WithRefreshToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, refreshTokenKey, token)
}

// GetRefreshToken returns the presented refresh token from context and true
// if set; otherwise "", false.
func GetRefreshToken(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(refreshTokenKey).(string)
	return v, ok
}
