package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

func echoPrincipal() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s/%s", rbac.SubjectFromContext(r.Context()), rbac.RoleFromContext(r.Context()))
	})
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT("u1", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	h := JWTMiddleware(a)(echoPrincipal())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 || rec.Body.String() != "u1/student" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"garbage":      "Bearer not.a.token",
		"other secret": "Bearer " + mustIssue(t, NewAuthService("other"), "u1", "admin"),
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status %d", name, rec.Code)
		}
	}
}

func TestExpiredToken(t *testing.T) {
	a := NewAuthService("s")
	a.now = func() time.Time { return time.Now().Add(-24 * time.Hour) }
	tok := mustIssue(t, a, "u1", "student")
	a.now = time.Now
	if _, err := a.Parse(tok); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckPassword(h, "hunter2"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := CheckPassword(h, "hunter3"); err != ErrBadCredentials {
		t.Fatalf("wrong password: %v", err)
	}
	if err := CheckPassword("", "x"); err != ErrBadCredentials {
		t.Fatalf("empty hash: %v", err)
	}
}

type users map[string]catalog.User

func (u users) GetUser(_ context.Context, id string) (catalog.User, error) {
	if usr, ok := u[id]; ok {
		return usr, nil
	}
	return catalog.User{}, apperr.ErrNotFound
}

func TestAttachRoleFromStore(t *testing.T) {
	store := users{"u1": {ID: "u1", Role: "teacher"}}
	run := func(sub, claimRole string, fallback bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(rbac.WithRole(rbac.WithSubject(req.Context(), sub), claimRole))
		rec := httptest.NewRecorder()
		AttachRoleFromStore(store, fallback)(echoPrincipal()).ServeHTTP(rec, req)
		return rec
	}

	if rec := run("u1", "admin", false); rec.Body.String() != "u1/teacher" {
		t.Errorf("stored role should win: %q", rec.Body.String())
	}
	if rec := run("ghost", "student", true); rec.Body.String() != "ghost/student" {
		t.Errorf("fallback should keep claim: %q", rec.Body.String())
	}
	if rec := run("ghost", "student", false); rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown user without fallback: %d", rec.Code)
	}
}

func mustIssue(t *testing.T, a *AuthService, sub, role string) string {
	t.Helper()
	tok, err := a.IssueJWT(sub, role)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}
