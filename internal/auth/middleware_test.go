package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CivicMesh/rtcc/pkg/models"
)

func newTestMiddleware(t *testing.T) (*TokenService, http.Handler) {
	t.Helper()

	ts := NewTokenService([]byte("mw-secret"), 15*time.Minute, 24*time.Hour)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := UserFromContext(r.Context()); user != nil {
			w.Header().Set("X-Test-User", user.Username)
		}
		w.WriteHeader(http.StatusOK)
	})
	return ts, AuthMiddleware(ts)(inner)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	_, handler := newTestMiddleware(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/incidents", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	ts, handler := newTestMiddleware(t)

	token, err := ts.IssueAccessToken(&User{ID: "u1", Username: "analyst1", Role: models.RoleAnalyst})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Test-User"); got != "analyst1" {
		t.Errorf("context user = %q, want analyst1", got)
	}
}

func TestAuthMiddlewareSkipsPublicPaths(t *testing.T) {
	_, handler := newTestMiddleware(t)

	paths := []string{
		"/healthz",
		"/api/v1/auth/login",
		"/api/v1/auth/setup/status",
	}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200 without token", path, rec.Code)
		}
	}
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	_, handler := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/incidents", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
