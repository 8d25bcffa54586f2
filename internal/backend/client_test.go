package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGetJSONDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/drones" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"drones":[{"id":"d1"},{"id":"d2"}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second, zap.NewNop())

	var out struct {
		Drones []struct {
			ID string `json:"id"`
		} `json:"drones"`
	}
	if err := client.GetJSON(context.Background(), "/api/drones", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out.Drones) != 2 || out.Drones[0].ID != "d1" {
		t.Errorf("decoded = %+v", out)
	}
}

func TestGetJSONClassifiesUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := New(srv.URL, time.Second, zap.NewNop())
	var out map[string]any
	err := client.GetJSON(context.Background(), "/api/drones", &out)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
}

func TestGetJSONClassifiesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, zap.NewNop())
	var out map[string]any
	err := client.GetJSON(context.Background(), "/api/drones", &out)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
}

func TestGetJSONClassifiesMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, zap.NewNop())
	var out map[string]any
	err := client.GetJSON(context.Background(), "/api/drones", &out)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestUnconfiguredClientReportsUnreachable(t *testing.T) {
	client := New("", time.Second, zap.NewNop())
	if client.Configured() {
		t.Error("empty base URL should report unconfigured")
	}
	var out map[string]any
	if err := client.GetJSON(context.Background(), "/x", &out); !errors.Is(err, ErrUnreachable) {
		t.Errorf("err = %v, want ErrUnreachable", err)
	}
}

func TestEnvelopeConstructors(t *testing.T) {
	live := Live([]int{1, 2})
	if live.Source != SourceLive || live.Reason != "" || len(live.Data) != 2 {
		t.Errorf("live = %+v", live)
	}

	demo := Demo([]int{3}, ErrUnreachable)
	if demo.Source != SourceDemo || demo.Reason != "backend unreachable" {
		t.Errorf("demo = %+v", demo)
	}

	unavail := Unavailable[[]int](ErrMalformed)
	if unavail.Source != SourceUnavailable || unavail.Reason != "malformed response" {
		t.Errorf("unavailable = %+v", unavail)
	}
	if unavail.Data != nil {
		t.Errorf("unavailable data = %v, want zero value", unavail.Data)
	}
}
