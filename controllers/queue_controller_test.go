package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"matchmaking_server/models"
	"matchmaking_server/services"
)

// noopBus ignores subscriptions and optionally records publishes.
type noopBus struct{}

func (noopBus) Publish(ctx context.Context, topic string, payload interface{}) error { return nil }
func (noopBus) Subscribe(ctx context.Context, topic string, group string, handler func(context.Context, []byte) error) error {
	return nil
}

type recordingBus struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func (b *recordingBus) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.published == nil {
		b.published = make(map[string][][]byte)
	}
	b.published[topic] = append(b.published[topic], data)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, topic string, group string, handler func(context.Context, []byte) error) error {
	return nil
}

func newQueueRouter(bus services.EventBus) *mux.Router {
	service := &services.QueueService{Bus: bus, Config: services.LoadConfig()}
	r := mux.NewRouter()
	r.HandleFunc("/api/queue", NewQueueController(service).Enqueue).Methods("POST")
	return r
}

func TestEnqueueAcknowledgesTicket(t *testing.T) {
	bus := &recordingBus{}
	router := newQueueRouter(bus)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/queue", strings.NewReader(`{"participantId":"p1","rating":1500}`)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var ack models.Ticket
	if err := json.NewDecoder(rec.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.ParticipantID != "p1" || ack.Rating != 1500 {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if ack.EnqueuedAt.IsZero() {
		t.Fatal("ack is missing the enqueuedAt stamp")
	}
	if len(bus.published[models.TopicEnqueue]) != 1 {
		t.Fatalf("expected one published enqueue event, got %d", len(bus.published[models.TopicEnqueue]))
	}
}

func TestEnqueueRejectsBadBody(t *testing.T) {
	router := newQueueRouter(&recordingBus{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/queue", strings.NewReader("not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEnqueueRejectsInvalidTicket(t *testing.T) {
	bus := &recordingBus{}
	router := newQueueRouter(bus)

	bodies := []string{
		`{"participantId":"","rating":1500}`,
		`{"participantId":"p1","rating":-5}`,
		`{"participantId":"p1","rating":20000}`,
	}
	for _, body := range bodies {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/queue", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
	if len(bus.published[models.TopicEnqueue]) != 0 {
		t.Fatalf("rejected requests must not publish, got %d events", len(bus.published[models.TopicEnqueue]))
	}
}
