package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// UserLookup is the part of the catalog the role refresher needs.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (catalog.User, error)
}

// AttachRoleFromStore replaces the token role with the stored user role, so
// demotions apply before tokens expire. Tokens for unknown users keep their
// claim role only when allowClaimFallback is set (offline/dev).
func AttachRoleFromStore(users UserLookup, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			u, err := users.GetUser(ctx, rbac.SubjectFromContext(ctx))
			switch {
			case err == nil && u.Role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, u.Role)))
			case (err == nil || errors.Is(err, apperr.ErrNotFound)) && allowClaimFallback:
				next.ServeHTTP(w, r)
			case err == nil || errors.Is(err, apperr.ErrNotFound):
				unauthorized(w, "unknown user")
			default:
				http.Error(w, "user lookup failed", http.StatusInternalServerError)
			}
		})
	}
}
