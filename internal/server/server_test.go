package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

// mockModuleSource satisfies ModuleSource for testing.
type mockModuleSource struct {
	modules []plugin.Plugin
	routes  map[string][]plugin.Route
}

func (m *mockModuleSource) AllRoutes() map[string][]plugin.Route {
	if m.routes != nil {
		return m.routes
	}
	return map[string][]plugin.Route{}
}

func (m *mockModuleSource) All() []plugin.Plugin {
	return m.modules
}

// stubModule satisfies plugin.Plugin for testing.
type stubModule struct {
	info plugin.PluginInfo
}

func (s *stubModule) Info() plugin.PluginInfo                             { return s.info }
func (s *stubModule) Init(_ context.Context, _ plugin.Dependencies) error { return nil }
func (s *stubModule) Start(_ context.Context) error                       { return nil }
func (s *stubModule) Stop(_ context.Context) error                        { return nil }

func newTestServer(ready ReadinessChecker, opts Options) *Server {
	modules := &mockModuleSource{
		modules: []plugin.Plugin{
			&stubModule{info: plugin.PluginInfo{
				Name:        "incidents",
				Version:     "0.1.0",
				Description: "Command incident tracking",
			}},
		},
	}
	return New("127.0.0.1:0", modules, zap.NewNop(), ready, opts)
}

func TestHandleHealthz(t *testing.T) {
	srv := newTestServer(nil, Options{})

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "alive" {
		t.Errorf("status = %q, want alive", body["status"])
	}
}

func TestHandleReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		srv := newTestServer(func(_ context.Context) error { return nil }, Options{})

		w := httptest.NewRecorder()
		srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", http.NoBody))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		srv := newTestServer(func(_ context.Context) error {
			return errors.New("database unreachable")
		}, Options{})

		w := httptest.NewRecorder()
		srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/readyz", http.NoBody))
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", w.Code)
		}
		var body map[string]string
		json.NewDecoder(w.Body).Decode(&body)
		if body["error"] != "database unreachable" {
			t.Errorf("error = %q", body["error"])
		}
	})
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(nil, Options{})

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Service != "rtcc" || body.Status != "ok" {
		t.Errorf("body = %+v", body)
	}
}

func TestHandleModules(t *testing.T) {
	srv := newTestServer(nil, Options{})

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/modules", http.NoBody))

	var body []ModuleResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body[0].Name != "incidents" {
		t.Errorf("modules = %+v", body)
	}
}

func TestModuleRoutesMounted(t *testing.T) {
	called := false
	modules := &mockModuleSource{
		routes: map[string][]plugin.Route{
			"fleet": {
				{Method: "GET", Path: "/units", Handler: func(w http.ResponseWriter, _ *http.Request) {
					called = true
					w.WriteHeader(http.StatusOK)
				}},
			},
		},
	}
	srv := New("127.0.0.1:0", modules, zap.NewNop(), nil, Options{})

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/fleet/units", http.NoBody))

	if !called {
		t.Error("module route handler not invoked")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestDashboardMountedAsCatchAll(t *testing.T) {
	dash := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("spa"))
	})
	srv := newTestServer(nil, Options{Dashboard: dash})

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/map", http.NoBody))

	if w.Body.String() != "spa" {
		t.Errorf("body = %q, want spa", w.Body.String())
	}

	// API routes still win over the catch-all.
	w = httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", http.NoBody))
	if w.Body.String() == "spa" {
		t.Error("dashboard shadowed an API route")
	}
}

func TestExtraRegistrarsMounted(t *testing.T) {
	extra := registrarFunc(func(mux *http.ServeMux) {
		mux.HandleFunc("GET /api/v1/nav", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	})
	srv := newTestServer(nil, Options{Extra: []SimpleRouteRegistrar{extra}})

	w := httptest.NewRecorder()
	srv.mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/nav", http.NoBody))
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, extra registrar not mounted", w.Code)
	}
}

type registrarFunc func(mux *http.ServeMux)

func (f registrarFunc) RegisterRoutes(mux *http.ServeMux) { f(mux) }
