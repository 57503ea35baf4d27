package middleware

import (
	"net/http"

	"cloudpad-admin/backend/internal/account/domain"
)

// RequireRoles returns middleware that allows the request only if the
// context identity's role is a member of the given set. Membership is exact:
// a super-admin is not implicitly privileged as admin unless listed.
//
// Precondition: RequireAccess (or an equivalent guard) must run earlier in
// the chain to populate the identity; ordering is the router's
// responsibility. With no roles given the middleware allows any request.
// Routes with no declared requirement simply omit this middleware.
func RequireRoles(roles ...domain.Role) func(http.Handler) http.Handler {
	required := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		required[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			role, ok := GetRole(r.Context())
			if !ok || !required[role] {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
