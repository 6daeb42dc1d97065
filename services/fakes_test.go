package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"matchmaking_server/models"
)

// fakeTicketStore is an in-memory TicketStore with the same atomicity
// contract as the Redis adapter: claims are all-or-nothing and serialized.
type fakeTicketStore struct {
	mu      sync.Mutex
	buckets map[int][]models.Ticket
}

func newFakeTicketStore() *fakeTicketStore {
	return &fakeTicketStore{buckets: make(map[int][]models.Ticket)}
}

func (f *fakeTicketStore) Append(ctx context.Context, bucket int, ticket models.Ticket) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = append(f.buckets[bucket], ticket)
	return int64(len(f.buckets[bucket])), nil
}

func (f *fakeTicketStore) Claim(ctx context.Context, bucket int, n int) ([]models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.buckets[bucket]
	if len(queue) < n {
		return nil, ErrBucketNotReady
	}
	claimed := make([]models.Ticket, n)
	copy(claimed, queue[:n])
	f.buckets[bucket] = append([]models.Ticket(nil), queue[n:]...)
	return claimed, nil
}

func (f *fakeTicketStore) Requeue(ctx context.Context, bucket int, tickets []models.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = append(append([]models.Ticket(nil), tickets...), f.buckets[bucket]...)
	return nil
}

func (f *fakeTicketStore) Length(ctx context.Context, bucket int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.buckets[bucket])), nil
}

// fakeBus records published events and replays queued deliveries to
// subscribers. PublishErr, when set, decides per publish whether to fail.
type fakeBus struct {
	mu         sync.Mutex
	published  map[string][][]byte
	deliveries map[string][][]byte
	acked      map[string]int
	nacked     map[string]int
	PublishErr func(topic string) error
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		published:  make(map[string][][]byte),
		deliveries: make(map[string][][]byte),
		acked:      make(map[string]int),
		nacked:     make(map[string]int),
	}
}

func (b *fakeBus) Publish(ctx context.Context, topic string, payload interface{}) error {
	if b.PublishErr != nil {
		if err := b.PublishErr(topic); err != nil {
			return err
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[topic] = append(b.published[topic], data)
	return nil
}

// Subscribe synchronously hands every queued delivery for the topic to the
// handler, then returns. A handler error counts as a nack (redelivery in
// the real bus) and stops consuming nothing.
func (b *fakeBus) Subscribe(ctx context.Context, topic string, group string, handler func(context.Context, []byte) error) error {
	b.mu.Lock()
	msgs := b.deliveries[topic]
	b.mu.Unlock()
	for _, msg := range msgs {
		if err := handler(ctx, msg); err != nil {
			b.mu.Lock()
			b.nacked[topic]++
			b.mu.Unlock()
			continue
		}
		b.mu.Lock()
		b.acked[topic]++
		b.mu.Unlock()
	}
	return nil
}

func (b *fakeBus) deliver(topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("deliver: %v", err))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliveries[topic] = append(b.deliveries[topic], data)
}

func (b *fakeBus) deliverRaw(topic string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliveries[topic] = append(b.deliveries[topic], payload)
}

func (b *fakeBus) publishedOn(topic string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.published[topic]...)
}

// fakeSessionStore mirrors the Dynamo store's visible behavior: Get hides
// records once their expiry has passed.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	putErr   error
	now      func() time.Time
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session), now: time.Now}
}

func (f *fakeSessionStore) Put(ctx context.Context, session models.Session) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) Get(ctx context.Context, id string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok || session.ExpiresAt <= f.now().Unix() {
		return models.Session{}, ErrSessionNotFound
	}
	return session, nil
}
