package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CivicMesh/rtcc/internal/auth"
	"github.com/CivicMesh/rtcc/internal/event"
	"github.com/CivicMesh/rtcc/internal/incidents"
	"github.com/CivicMesh/rtcc/internal/watch"
	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *event.Bus) {
	t.Helper()
	tokens := auth.NewTokenService([]byte("ws-test-secret-ws-test-secret!!"), 15*time.Minute, time.Hour)
	bus := event.NewBus(zap.NewNop())
	return NewHandler(tokens, bus, zap.NewNop()), bus
}

func TestEventStreamRequiresToken(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ws/events", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ws/events?token=garbage", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestBusEventsMapToMessages(t *testing.T) {
	h, bus := newTestHandler(t)

	client := newTestClient("user-1")
	h.Hub().Register(client)

	cases := []struct {
		topic string
		want  MessageType
	}{
		{incidents.TopicCreated, MessageIncidentCreated},
		{incidents.TopicClosed, MessageIncidentClosed},
		{watch.TopicCameraDown, MessageCameraDown},
		{watch.TopicCameraUp, MessageCameraUp},
	}
	for _, tc := range cases {
		if err := bus.Publish(context.Background(), plugin.Event{
			Topic:     tc.topic,
			Timestamp: time.Now(),
			Payload:   map[string]string{"id": "x"},
		}); err != nil {
			t.Fatalf("publish %s: %v", tc.topic, err)
		}

		select {
		case msg := <-client.send:
			if msg.Type != tc.want {
				t.Errorf("topic %s mapped to %s, want %s", tc.topic, msg.Type, tc.want)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("topic %s never reached client", tc.topic)
		}
	}
}

func TestUnmappedTopicsAreNotRelayed(t *testing.T) {
	h, bus := newTestHandler(t)

	client := newTestClient("user-1")
	h.Hub().Register(client)

	if err := bus.Publish(context.Background(), plugin.Event{
		Topic:     watch.TopicCheckResult,
		Timestamp: time.Now(),
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-client.send:
		t.Errorf("unexpected message %s for unmapped topic", msg.Type)
	case <-time.After(50 * time.Millisecond):
	}
}
