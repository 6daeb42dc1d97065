package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) *RedisTicketStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return &RedisTicketStore{Client: client}
}

func TestRedisClaimIsAllOrNothing(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if _, err := store.Append(ctx, 1000, ticket(fmt.Sprintf("p%d", i), 1000+i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if _, err := store.Claim(ctx, 1000, 8); !errors.Is(err, ErrBucketNotReady) {
		t.Fatalf("expected ErrBucketNotReady, got %v", err)
	}
	if n, _ := store.Length(ctx, 1000); n != 7 {
		t.Fatalf("short claim must remove nothing, length %d", n)
	}

	if _, err := store.Append(ctx, 1000, ticket("p7", 1007)); err != nil {
		t.Fatalf("append: %v", err)
	}
	group, err := store.Claim(ctx, 1000, 8)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(group) != 8 {
		t.Fatalf("expected 8 claimed tickets, got %d", len(group))
	}
	for i, tk := range group {
		if want := fmt.Sprintf("p%d", i); tk.ParticipantID != want {
			t.Fatalf("claim order broken at %d: got %q, want %q", i, tk.ParticipantID, want)
		}
	}
	if n, _ := store.Length(ctx, 1000); n != 0 {
		t.Fatalf("expected empty bucket after claim, length %d", n)
	}
}

func TestRedisRequeueRestoresGroupAtHead(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := store.Append(ctx, 1000, ticket(fmt.Sprintf("p%d", i), 1000+i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	group, err := store.Claim(ctx, 1000, 8)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.Requeue(ctx, 1000, group); err != nil {
		t.Fatalf("requeue: %v", err)
	}
	if n, _ := store.Length(ctx, 1000); n != 10 {
		t.Fatalf("expected 10 tickets after requeue, length %d", n)
	}

	// The requeued group is back at the head in its original order, ahead of
	// the two tickets that were never claimed.
	again, err := store.Claim(ctx, 1000, 8)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	for i, tk := range again {
		if tk.ParticipantID != group[i].ParticipantID {
			t.Fatalf("requeue reordered group at %d: got %q, want %q", i, tk.ParticipantID, group[i].ParticipantID)
		}
	}
}

func TestRedisBucketsListsExistingBuckets(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	store.Append(ctx, 900, ticket("a", 999))
	store.Append(ctx, 1000, ticket("b", 1000))

	buckets, err := store.Buckets(ctx)
	if err != nil {
		t.Fatalf("buckets: %v", err)
	}
	seen := make(map[int]bool)
	for _, b := range buckets {
		seen[b] = true
	}
	if !seen[900] || !seen[1000] || len(buckets) != 2 {
		t.Fatalf("unexpected buckets: %v", buckets)
	}
}
