package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"matchmaking_server/models"
)

// FormationService claims full groups from a bucket and turns them into
// matches. Claims are all-or-nothing against the ticket store, so any number
// of workers can race on the same bucket without ever receiving overlapping
// tickets.
type FormationService struct {
	Store  TicketStore
	Bus    EventBus
	Config Config
	Now    func() time.Time // Defaults to time.Now; injectable for tests
}

func (fs *FormationService) now() time.Time {
	if fs.Now != nil {
		return fs.Now()
	}
	return time.Now()
}

// TryFormBucket attempts one claim-and-publish pass on the bucket. Returns
// ErrBucketNotReady when a full group was not available at claim time (a
// lost race or stale trigger): in that case nothing was removed and there
// are no side effects.
//
// If the match-formed publish fails after a successful claim, the claimed
// tickets are pushed back onto the head of the bucket so no participant is
// lost; they re-enter the normal matching path. Head re-insertion can
// reorder relative to strict FIFO, which is accepted.
func (fs *FormationService) TryFormBucket(ctx context.Context, bucket int) error {
	group, err := fs.Store.Claim(ctx, bucket, fs.Config.GroupSize)
	if err != nil {
		return err
	}

	match := fs.buildMatch(group)
	event := models.MatchFormedEvent{Match: match}
	if err := fs.Bus.Publish(ctx, models.TopicMatchFormed, event); err != nil {
		log.Printf("⚠️ Publish of match-formed for bucket %d failed, requeueing %d tickets: %v", bucket, len(group), err)
		if requeueErr := fs.Store.Requeue(ctx, bucket, group); requeueErr != nil {
			return fmt.Errorf("publish failed and requeue of bucket %d failed: %v: %w", bucket, err, requeueErr)
		}
		return fmt.Errorf("failed to publish match-formed for bucket %d: %w", bucket, err)
	}

	log.Printf("🏆 Formed match from bucket %d: %v vs %v", bucket, match.SideA, match.SideB)
	return nil
}

// buildMatch splits the claimed group down the middle in arrival order. The
// straight split is deliberate: tickets of one bucket are already within one
// rating band, and no further balancing is attempted.
func (fs *FormationService) buildMatch(group []models.Ticket) models.Match {
	teamSize := len(group) / 2
	sideA := make([]string, 0, teamSize)
	sideB := make([]string, 0, teamSize)
	for i, ticket := range group {
		if i < teamSize {
			sideA = append(sideA, ticket.ParticipantID)
		} else {
			sideB = append(sideB, ticket.ParticipantID)
		}
	}
	return models.Match{
		Mode:     fs.Config.MatchMode,
		Region:   fs.Config.MatchRegion,
		SideA:    sideA,
		SideB:    sideB,
		FormedAt: fs.now(),
	}
}

// DrainBucket runs formation passes until the bucket no longer holds a full
// group. Used on startup to pick up buckets that filled while no worker was
// running.
func (fs *FormationService) DrainBucket(ctx context.Context, bucket int) error {
	for {
		if err := fs.TryFormBucket(ctx, bucket); err != nil {
			if errors.Is(err, ErrBucketNotReady) {
				return nil
			}
			return err
		}
	}
}
