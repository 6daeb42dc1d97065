package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"matchmaking_server/models"
)

// QueueService is the bucket queue manager: it validates tickets, appends
// them to their rating bucket, and triggers match formation when a bucket
// looks full. The length check is an advisory trigger only; the formation
// claim re-validates atomically.
type QueueService struct {
	Store     TicketStore
	Bus       EventBus
	Formation *FormationService
	Config    Config
}

// BucketKey maps a rating onto the lower bound of its bucket.
func (qs *QueueService) BucketKey(rating int) int {
	return (rating / qs.Config.BucketWidth) * qs.Config.BucketWidth
}

// ValidateTicket rejects tickets with an empty participant id or a rating
// outside the configured range. Rejection is a caller error, never retried.
func (qs *QueueService) ValidateTicket(ticket models.Ticket) error {
	if ticket.ParticipantID == "" {
		return fmt.Errorf("%w: participantId is required", ErrInvalidTicket)
	}
	if ticket.Rating < qs.Config.MinRating || ticket.Rating > qs.Config.MaxRating {
		return fmt.Errorf("%w: rating %d outside [%d, %d]", ErrInvalidTicket, ticket.Rating, qs.Config.MinRating, qs.Config.MaxRating)
	}
	return nil
}

// Enqueue appends a validated ticket to its bucket and returns the bucket's
// post-append length. When the length reaches a full group it kicks off a
// formation attempt; losing that claim race to another worker is not an
// error.
func (qs *QueueService) Enqueue(ctx context.Context, ticket models.Ticket) (int64, error) {
	if err := qs.ValidateTicket(ticket); err != nil {
		return 0, err
	}

	bucket := qs.BucketKey(ticket.Rating)
	length, err := qs.Store.Append(ctx, bucket, ticket)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue ticket for %q: %w", ticket.ParticipantID, err)
	}
	log.Printf("🎫 Enqueued %q (rating %d) into bucket %d, length now %d", ticket.ParticipantID, ticket.Rating, bucket, length)

	if length >= int64(qs.Config.GroupSize) {
		if err := qs.Formation.TryFormBucket(ctx, bucket); err != nil && !errors.Is(err, ErrBucketNotReady) {
			// The ticket is safely queued; formation will be retried on the
			// next trigger for this bucket.
			log.Printf("⚠️ Formation attempt for bucket %d failed: %v", bucket, err)
		}
	}
	return length, nil
}

// PublishEnqueue validates an incoming enqueue request, stamps it with the
// current time, and publishes it on the enqueue topic. The returned ticket
// is the acknowledgement body; matching itself happens asynchronously.
func (qs *QueueService) PublishEnqueue(ctx context.Context, participantID string, rating int) (models.Ticket, error) {
	ticket := models.Ticket{
		ParticipantID: participantID,
		Rating:        rating,
		EnqueuedAt:    time.Now().UTC(),
	}
	if err := qs.ValidateTicket(ticket); err != nil {
		return models.Ticket{}, err
	}
	if err := qs.Bus.Publish(ctx, models.TopicEnqueue, models.EnqueueEvent(ticket)); err != nil {
		return models.Ticket{}, fmt.Errorf("failed to publish enqueue event for %q: %w", participantID, err)
	}
	return ticket, nil
}

// RunEnqueueConsumer consumes the enqueue topic until ctx is done. Malformed
// messages are logged and dropped; a ticket that fails validation is also
// dropped since retrying cannot fix caller input. Transient store failures
// leave the message unacked so the whole enqueue is retried.
func (qs *QueueService) RunEnqueueConsumer(ctx context.Context) error {
	return qs.Bus.Subscribe(ctx, models.TopicEnqueue, "queue-manager", func(ctx context.Context, payload []byte) error {
		var event models.EnqueueEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("❌ Dropping unparseable enqueue message: %v", err)
			return nil
		}
		if _, err := qs.Enqueue(ctx, event); err != nil {
			if errors.Is(err, ErrInvalidTicket) {
				log.Printf("❌ Dropping invalid enqueue message: %v", err)
				return nil
			}
			return err
		}
		return nil
	})
}
