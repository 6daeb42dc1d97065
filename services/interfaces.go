package services

import (
	"context"
	"errors"

	"matchmaking_server/models"
)

// Sentinel errors distinguishing the failure classes of the pipeline:
// client input errors are rejected and never retried, ErrBucketNotReady is a
// lost claim race (no side effects), everything else wraps a transient
// infrastructure fault that is safe to retry from scratch.
var (
	ErrInvalidTicket    = errors.New("invalid ticket")
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrSessionNotFound  = errors.New("session not found")
	ErrBucketNotReady   = errors.New("bucket has fewer tickets than a full group")
)

// TicketStore is the narrow surface of the per-bucket ticket lists. All
// mutation goes through these primitives; Length is an advisory trigger only
// and a caller must never assume it still holds at claim time.
type TicketStore interface {
	// Append adds a ticket to the tail of the bucket's list and returns the
	// post-append length.
	Append(ctx context.Context, bucket int, ticket models.Ticket) (int64, error)

	// Claim atomically removes and returns the oldest n tickets from the
	// bucket. All-or-nothing: if fewer than n tickets are queued, nothing is
	// removed and ErrBucketNotReady is returned. Two concurrent claims on the
	// same bucket never receive overlapping tickets.
	Claim(ctx context.Context, bucket int, n int) ([]models.Ticket, error)

	// Requeue pushes claimed tickets back onto the head of the bucket's list.
	// Used as the compensating action after a failed publish.
	Requeue(ctx context.Context, bucket int, tickets []models.Ticket) error

	// Length reports how many tickets are queued in the bucket.
	Length(ctx context.Context, bucket int) (int64, error)
}

// SessionStore is a keyed record store with per-record expiry.
type SessionStore interface {
	// Put persists the session; the record becomes unreachable after its
	// ExpiresAt passes.
	Put(ctx context.Context, session models.Session) error

	// Get returns the session for id, or ErrSessionNotFound when it is
	// missing or expired. The two cases are indistinguishable to callers.
	Get(ctx context.Context, id string) (models.Session, error)
}

// EventBus is an at-least-once publish/subscribe transport. Subscribe blocks
// until ctx is done, invoking handler for each delivery; a handler error
// leaves the message unacknowledged so it is delivered again. Duplicates are
// possible and consumers must tolerate them. No ordering is guaranteed
// across topics.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	Subscribe(ctx context.Context, topic string, group string, handler func(context.Context, []byte) error) error
}
