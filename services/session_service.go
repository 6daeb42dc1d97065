package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"matchmaking_server/models"
)

// SessionService materializes sessions from formed matches and serves
// lookups. One session is created per match-formed event; there is no
// idempotency key, so a duplicate delivery creates a duplicate session
// (known gap of the pipeline, tolerated).
type SessionService struct {
	Sessions SessionStore
	Bus      EventBus
	Config   Config
	Now      func() time.Time // Defaults to time.Now; injectable for tests
	NewID    func() string    // Defaults to uuid.NewString; injectable for tests
}

func (ss *SessionService) now() time.Time {
	if ss.Now != nil {
		return ss.Now()
	}
	return time.Now()
}

func (ss *SessionService) newID() string {
	if ss.NewID != nil {
		return ss.NewID()
	}
	return uuid.NewString()
}

// RunMaterializer consumes match-formed events until ctx is done. Every
// failure mode here acknowledges the message: malformed events cannot be
// repaired by retry, and a failed session write is logged and dropped rather
// than retried (re-running it would need idempotency keying the store does
// not have).
func (ss *SessionService) RunMaterializer(ctx context.Context) error {
	return ss.Bus.Subscribe(ctx, models.TopicMatchFormed, "session-materializer", func(ctx context.Context, payload []byte) error {
		var event models.MatchFormedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("❌ Dropping unparseable match-formed message: %v", err)
			return nil
		}
		if err := ss.HandleMatchFormed(ctx, event.Match); err != nil {
			log.Printf("❌ Dropping match-formed event: %v", err)
		}
		return nil
	})
}

// HandleMatchFormed validates the match, persists a fresh session for it,
// and publishes session-created.
func (ss *SessionService) HandleMatchFormed(ctx context.Context, match models.Match) error {
	if err := validateMatch(match); err != nil {
		return err
	}

	now := ss.now()
	session := models.Session{
		ID:        ss.newID(),
		Mode:      match.Mode,
		Region:    match.Region,
		SideA:     match.SideA,
		SideB:     match.SideB,
		CreatedAt: now.UTC().Format(time.RFC3339),
		ExpiresAt: now.Add(ss.Config.SessionTTL).Unix(),
	}

	if err := ss.Sessions.Put(ctx, session); err != nil {
		return fmt.Errorf("failed to persist session for match: %w", err)
	}
	log.Printf("🎮 Created session %s for match %v vs %v", session.ID, match.SideA, match.SideB)

	created := models.SessionCreatedEvent{ID: session.ID, Match: match}
	if err := ss.Bus.Publish(ctx, models.TopicSessionCreated, created); err != nil {
		// The session exists and is resolvable by id; only the notification
		// was lost.
		log.Printf("⚠️ Failed to publish session-created for %s: %v", session.ID, err)
	}
	return nil
}

// GetSession validates the id shape and loads the session. A malformed id is
// a client error; a well-formed id that is missing or expired is not found.
func (ss *SessionService) GetSession(ctx context.Context, id string) (models.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Session{}, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return ss.Sessions.Get(ctx, id)
}

func validateMatch(match models.Match) error {
	if match.Mode == "" || match.Region == "" {
		return fmt.Errorf("match has empty mode or region")
	}
	if len(match.SideA) == 0 || len(match.SideA) != len(match.SideB) {
		return fmt.Errorf("match has unbalanced sides: %d vs %d", len(match.SideA), len(match.SideB))
	}
	return nil
}
