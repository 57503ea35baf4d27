package middleware

import (
	"net/http"
	"strings"

	"cloudpad-admin/backend/internal/account/domain"
	"cloudpad-admin/backend/internal/security"
)

const bearerPrefix = "bearer "

// RequireAccess returns middleware that validates the Bearer access token
// from the Authorization header and attaches {account id, role} to the
// request context. Requests without a valid access token are rejected with
// 401. The guard is stateless per request and never mutates session state.
func RequireAccess(tokens *security.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				unauthorized(w)
				return
			}
			subject, role, err := tokens.ValidateAccess(token)
			if err != nil {
				unauthorized(w)
				return
			}
			ctx := WithIdentity(r.Context(), subject, domain.Role(role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRefresh returns middleware that validates the Bearer refresh token
// (signature and expiry only) and attaches the identity plus the raw token to
// the request context. The refresh handler still checks the token against the
// stored session hash; a signed token alone grants nothing. Rejections are
// 403, matching the refresh error contract.
func RequireRefresh(tokens *security.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				forbidden(w)
				return
			}
			subject, role, err := tokens.ValidateRefresh(token)
			if err != nil {
				forbidden(w)
				return
			}
			ctx := WithIdentity(r.Context(), subject, domain.Role(role))
			ctx = WithRefreshToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

func unauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization")
}

func forbidden(w http.ResponseWriter) {
	writeJSONError(w, http.StatusForbidden, "access denied")
}
