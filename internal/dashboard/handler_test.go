package dashboard

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesSPARoutes(t *testing.T) {
	handler := Handler()

	paths := []string{"/", "/map", "/incidents", "/incidents/abc123", "/settings/themes"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "<div id=\"root\">") {
				t.Error("SPA shell not served")
			}
		})
	}
}

func TestHandlerExcludesServerRoutes(t *testing.T) {
	handler := Handler()

	paths := []string{
		"/api/v1/auth/login",
		"/api/v1/incidents/records",
		"/swagger/index.html",
		"/healthz",
		"/readyz",
		"/metrics",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404 so the API mux handles it", rec.Code)
			}
		})
	}
}
