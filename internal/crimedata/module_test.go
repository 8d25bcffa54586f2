package crimedata

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/CivicMesh/rtcc/internal/event"
	"github.com/CivicMesh/rtcc/internal/store"
	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

func newTestModule(t *testing.T) *http.ServeMux {
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
		mux.HandleFunc(route.Method+" /api/v1/crimedata"+route.Path, route.Handler)
	}
	return mux
}

func uploadCSV(t *testing.T, mux *http.ServeMux, csvBody string) UploadResponse {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "records.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write([]byte(csvBody)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/crimedata/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

const sampleCSV = `date,category,jurisdiction,latitude,longitude
2026-03-01,burglary,RBPD,26.7712,-80.0585
2026-03-02,burglary,RBPD,26.7720,-80.0590
2026-03-03,vehicle theft,FDOT,26.7800,-80.0600
`

func TestUploadAndList(t *testing.T) {
	mux := newTestModule(t)

	resp := uploadCSV(t, mux, sampleCSV)
	if resp.Imported != 3 || resp.Rejected != 0 {
		t.Errorf("upload = %+v", resp)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/crimedata/records?category=burglary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var records []Record
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("burglary records = %d, want 2", len(records))
	}
}

func TestUploadReportsRejectedRows(t *testing.T) {
	mux := newTestModule(t)

	csvBody := `date,category,latitude,longitude
2026-03-01,burglary,26.77,-80.05
garbage-date,burglary,26.77,-80.05
`
	resp := uploadCSV(t, mux, csvBody)
	if resp.Imported != 1 || resp.Rejected != 1 {
		t.Errorf("upload = %+v", resp)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Line != 3 {
		t.Errorf("errors = %+v", resp.Errors)
	}
}

func TestUploadAllRowsRejectedFails(t *testing.T) {
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	bus := event.NewBus(zap.NewNop())
	var mu sync.Mutex
	var published []plugin.Event
	bus.Subscribe(TopicUploaded, func(ctx context.Context, e plugin.Event) {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, e)
	})

	m := New()
	deps := plugin.Dependencies{Logger: zap.NewNop(), Store: st, Bus: bus}
	if err := m.Init(context.Background(), deps); err != nil {
		t.Fatalf("init: %v", err)
	}
	mux := http.NewServeMux()
	for _, route := range m.Routes() {
		mux.HandleFunc(route.Method+" /api/v1/crimedata"+route.Path, route.Handler)
	}

	csvBody := `date,category,latitude,longitude
garbage,burglary,26.77,-80.05
also-garbage,burglary,26.77,-80.05
`
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "records.csv")
	_, _ = fw.Write([]byte(csvBody))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/crimedata/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	var resp UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Imported != 0 || resp.Rejected != 2 || len(resp.Errors) != 2 {
		t.Errorf("response = %+v, want 2 itemized rejections", resp)
	}

	// Nothing stored, and no upload event for a fully rejected file.
	listRec := httptest.NewRecorder()
	mux.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/api/v1/crimedata/records", nil))
	var records []Record
	if err := json.Unmarshal(listRec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records stored from rejected upload: %+v", records)
	}
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(published) != 0 {
		t.Errorf("upload event published for rejected file: %+v", published)
	}
}

func TestUploadMissingFileField(t *testing.T) {
	mux := newTestModule(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "x")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/crimedata/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStats(t *testing.T) {
	mux := newTestModule(t)
	uploadCSV(t, mux, sampleCSV)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/crimedata/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}

	var stats Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if len(stats.ByCategory) == 0 || stats.ByCategory[0].Category != "burglary" || stats.ByCategory[0].Count != 2 {
		t.Errorf("by_category = %+v", stats.ByCategory)
	}
}

func TestDeleteUploadRollsBack(t *testing.T) {
	mux := newTestModule(t)

	resp := uploadCSV(t, mux, sampleCSV)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/crimedata/uploads/"+resp.UploadID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	var del DeleteUploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &del); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if del.Deleted != 3 {
		t.Errorf("deleted = %d, want 3", del.Deleted)
	}

	// Deleting again is a 404.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/crimedata/uploads/"+resp.UploadID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}
