package http

import (
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	auth "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
)

// POST /auth/login  { "email": "...", "password": "..." }
func LoginHandler(a *auth.AuthService, users catalog.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		}
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		u, err := users.GetUserByEmail(r.Context(), req.Email)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			writeError(w, r, err)
			return
		}
		if err != nil || auth.CheckPassword(u.PasswordHash, req.Password) != nil {
			fail(w, http.StatusUnauthorized, auth.ErrBadCredentials.Error())
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, "logged in", map[string]any{"access_token": tok, "user": u})
	}
}
