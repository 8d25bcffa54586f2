package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/CivicMesh/rtcc/internal/event"
	"github.com/CivicMesh/rtcc/internal/store"
	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

func newTestModule(t *testing.T) (*Module, *http.ServeMux) {
	t.Helper()

	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	m := New()
	deps := plugin.Dependencies{
		Logger: zap.NewNop(),
		Store:  st,
		Bus:    event.NewBus(zap.NewNop()),
	}
	if err := m.Init(context.Background(), deps); err != nil {
		t.Fatalf("init: %v", err)
	}

	mux := http.NewServeMux()
	for _, route := range m.Routes() {
		mux.HandleFunc(route.Method+" /api/v1/notify"+route.Path, route.Handler)
	}
	return m, mux
}

func TestWebhookCRUD(t *testing.T) {
	_, mux := newTestModule(t)

	body := `{"name":"dispatch","url":"https://hooks.example.com/rtcc","secret":"s3cret","topics":["incidents.created"]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notify/webhooks", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	var created Webhook
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || !created.Enabled {
		t.Errorf("created = %+v", created)
	}
	if strings.Contains(rec.Body.String(), "s3cret") {
		t.Error("secret leaked in response")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notify/webhooks", nil))
	var hooks []Webhook
	if err := json.Unmarshal(rec.Body.Bytes(), &hooks); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(hooks) != 1 {
		t.Fatalf("len(hooks) = %d", len(hooks))
	}

	update := `{"name":"dispatch","url":"https://hooks.example.com/rtcc","topics":[],"enabled":false}`
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/notify/webhooks/"+created.ID, strings.NewReader(update)))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	var updated Webhook
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated.Enabled {
		t.Error("enabled should be false after update")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/notify/webhooks/"+created.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notify/webhooks/"+created.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func TestCreateWebhookRejectsBadURL(t *testing.T) {
	_, mux := newTestModule(t)

	for _, body := range []string{
		`{"name":"x","url":"not-a-url"}`,
		`{"name":"x","url":"ftp://example.com/hook"}`,
		`{"url":"https://example.com/hook"}`,
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notify/webhooks", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestUpdateKeepsSecretWhenOmitted(t *testing.T) {
	m, mux := newTestModule(t)

	body := `{"name":"dispatch","url":"https://hooks.example.com/rtcc","secret":"original"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/notify/webhooks", strings.NewReader(body)))
	var created Webhook
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	update := `{"name":"dispatch","url":"https://hooks.example.com/v2"}`
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/notify/webhooks/"+created.ID, strings.NewReader(update)))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}

	stored, err := m.store.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Secret != "original" {
		t.Errorf("secret = %q, want original", stored.Secret)
	}
	if stored.URL != "https://hooks.example.com/v2" {
		t.Errorf("url = %q", stored.URL)
	}
}

func TestSubscriptionsCoverRelayedTopics(t *testing.T) {
	m, _ := newTestModule(t)

	subs := m.Subscriptions()
	topics := make(map[string]bool, len(subs))
	for _, s := range subs {
		topics[s.Topic] = true
	}
	for _, want := range []string{
		"incidents.created", "incidents.assigned", "incidents.closed",
		"watch.camera.down", "watch.camera.up", "fleet.unit.status",
	} {
		if !topics[want] {
			t.Errorf("no subscription for %s (have %v)", want, topics)
		}
	}
}
