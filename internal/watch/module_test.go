package watch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CivicMesh/rtcc/internal/event"
	"github.com/CivicMesh/rtcc/internal/store"
	"github.com/CivicMesh/rtcc/pkg/plugin"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	rtccconfig "github.com/CivicMesh/rtcc/internal/config"
)

// fakeChecker returns scripted results keyed by camera ID.
type fakeChecker struct {
	ok     bool
	detail string
}

func (f *fakeChecker) Check(ctx context.Context, camera Camera) CheckResult {
	return CheckResult{
		CameraID:  camera.ID,
		OK:        f.ok,
		Latency:   12 * time.Millisecond,
		Detail:    f.detail,
		CheckedAt: time.Now().UTC(),
	}
}

func newTestModule(t *testing.T) (*Module, *http.ServeMux) {
	t.Helper()

	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	v := viper.New()
	v.Set("check_interval", "5s")
	v.Set("check_timeout", "1s")
	v.Set("consecutive_failures", 2)
	v.Set("max_workers", 4)

	m := New()
	deps := plugin.Dependencies{
		Config: rtccconfig.New(v),
		Logger: zap.NewNop(),
		Store:  st,
		Bus:    event.NewBus(zap.NewNop()),
	}
	if err := m.Init(context.Background(), deps); err != nil {
		t.Fatalf("init: %v", err)
	}

	mux := http.NewServeMux()
	for _, route := range m.Routes() {
		mux.HandleFunc(route.Method+" /api/v1/watch"+route.Path, route.Handler)
	}
	return m, mux
}

func createCamera(t *testing.T, mux *http.ServeMux, body string) Camera {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/watch/cameras", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var cam Camera
	if err := json.Unmarshal(rec.Body.Bytes(), &cam); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return cam
}

func TestConfigValidation(t *testing.T) {
	cases := []Config{
		{CheckInterval: 500 * time.Millisecond, CheckTimeout: 100 * time.Millisecond, MaxWorkers: 1, ConsecutiveFailures: 1},
		{CheckInterval: 30 * time.Second, CheckTimeout: time.Minute, MaxWorkers: 1, ConsecutiveFailures: 1},
		{CheckInterval: 30 * time.Second, CheckTimeout: 5 * time.Second, MaxWorkers: 0, ConsecutiveFailures: 1},
		{CheckInterval: 30 * time.Second, CheckTimeout: 5 * time.Second, MaxWorkers: 1, ConsecutiveFailures: 0},
	}
	for i, cfg := range cases {
		m := &Module{cfg: cfg}
		if err := m.ValidateConfig(); err == nil {
			t.Errorf("case %d: expected config validation failure", i)
		}
	}

	m := &Module{cfg: defaultConfig()}
	if err := m.ValidateConfig(); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

func TestCameraCRUD(t *testing.T) {
	_, mux := newTestModule(t)

	cam := createCamera(t, mux, `{"name":"Marina LPR 1","entity_type":"lpr","jurisdiction":"RBPD","address":"10.20.30.40"}`)
	if cam.Method != CheckICMP {
		t.Errorf("default method = %s, want icmp", cam.Method)
	}
	if cam.State != StateUnknown || !cam.Enabled {
		t.Errorf("created = %+v", cam)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/watch/cameras/"+cam.ID,
		strings.NewReader(`{"name":"Marina LPR 1B","address":"10.20.30.41","enabled":false}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/watch/cameras/"+cam.ID, nil))
	var got Camera
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Marina LPR 1B" || got.Enabled {
		t.Errorf("updated = %+v", got)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/watch/cameras/"+cam.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
}

func TestCreateCameraValidation(t *testing.T) {
	_, mux := newTestModule(t)

	cases := []string{
		`{"address":"10.0.0.1"}`,                                   // missing name
		`{"name":"x"}`,                                             // missing address
		`{"name":"x","address":"10.0.0.1","method":"rtsp"}`,        // bad method
		`{"name":"x","address":"not a url","method":"http"}`,       // http needs URL
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/watch/cameras", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestSweepChecksEnabledCamerasOnly(t *testing.T) {
	m, mux := newTestModule(t)
	m.scheduler.newChecker = func(camera Camera, cfg Config) Checker {
		return &fakeChecker{ok: true}
	}

	enabled := createCamera(t, mux, `{"name":"A","address":"10.0.0.1"}`)
	disabled := createCamera(t, mux, `{"name":"B","address":"10.0.0.2"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/watch/cameras/"+disabled.ID,
		strings.NewReader(`{"enabled":false}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("disable status = %d", rec.Code)
	}

	m.scheduler.RunSweep(context.Background())

	results, err := m.store.ListResults(context.Background(), enabled.ID, 10)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 1 || !results[0].OK {
		t.Errorf("enabled camera results = %+v", results)
	}

	results, _ = m.store.ListResults(context.Background(), disabled.ID, 10)
	if len(results) != 0 {
		t.Errorf("disabled camera was checked: %+v", results)
	}

	cam, err := m.store.GetCamera(context.Background(), enabled.ID)
	if err != nil {
		t.Fatalf("get camera: %v", err)
	}
	if cam.State != StateUp || cam.LastChecked == nil {
		t.Errorf("camera after sweep = %+v", cam)
	}
}

func TestSweepMarksCameraDownAfterThreshold(t *testing.T) {
	m, mux := newTestModule(t)
	m.scheduler.newChecker = func(camera Camera, cfg Config) Checker {
		return &fakeChecker{ok: false, detail: "no route to host"}
	}

	cam := createCamera(t, mux, `{"name":"A","address":"10.0.0.1"}`)

	// Threshold is 2 in the test config.
	m.scheduler.RunSweep(context.Background())
	got, _ := m.store.GetCamera(context.Background(), cam.ID)
	if got.State != StateUp {
		t.Errorf("state after 1 failure = %s, want up", got.State)
	}

	m.scheduler.RunSweep(context.Background())
	got, _ = m.store.GetCamera(context.Background(), cam.ID)
	if got.State != StateDown {
		t.Errorf("state after 2 failures = %s, want down", got.State)
	}
}

func TestCheckNowEndpoint(t *testing.T) {
	m, mux := newTestModule(t)
	m.scheduler.newChecker = func(camera Camera, cfg Config) Checker {
		return &fakeChecker{ok: true}
	}

	cam := createCamera(t, mux, `{"name":"A","address":"10.0.0.1"}`)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/watch/cameras/"+cam.ID+"/check", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("check status = %d: %s", rec.Code, rec.Body.String())
	}

	var result CheckResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.OK || result.CameraID != cam.ID {
		t.Errorf("result = %+v", result)
	}
}

func TestSummary(t *testing.T) {
	m, mux := newTestModule(t)
	m.scheduler.newChecker = func(camera Camera, cfg Config) Checker {
		return &fakeChecker{ok: true}
	}

	createCamera(t, mux, `{"name":"A","address":"10.0.0.1"}`)
	createCamera(t, mux, `{"name":"B","address":"10.0.0.2"}`)
	m.scheduler.RunSweep(context.Background())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/watch/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}

	var s Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Total != 2 || s.Up != 2 || s.Down != 0 {
		t.Errorf("summary = %+v", s)
	}
}
