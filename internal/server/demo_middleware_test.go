package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDemoMiddleware_allowsReads(t *testing.T) {
	h := DemoMiddleware(okHandler())

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/incidents/records", http.NoBody))
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", method, w.Code)
		}
	}
}

func TestDemoMiddleware_rejectsWrites(t *testing.T) {
	h := DemoMiddleware(okHandler())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/incidents/records", http.NoBody))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s status = %d, want 405", method, w.Code)
		}
	}
}
