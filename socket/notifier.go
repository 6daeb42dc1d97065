package socket

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"matchmaking_server/models"
	"matchmaking_server/services"
)

// sessionNotification is the frame pushed to gateway clients when their
// session is ready.
type sessionNotification struct {
	Type      string   `json:"type"`
	SessionID string   `json:"sessionId"`
	Mode      string   `json:"mode"`
	Region    string   `json:"region"`
	SideA     []string `json:"sideA"`
	SideB     []string `json:"sideB"`
}

// RunSessionNotifier consumes session-created events and pushes a
// notification to every participant of the session that is currently
// connected. Delivery to clients is best-effort, so every message is
// acknowledged regardless.
//
// The subscription group is per gateway host: participants may be connected
// to any instance, so each instance has to see every event, and reusing the
// hostname keeps the group (and its pending entries) stable across restarts.
func RunSessionNotifier(ctx context.Context, bus services.EventBus, hub *Hub) error {
	host, err := os.Hostname()
	if err != nil {
		host = "gateway"
	}
	group := "session-notifier-" + host
	return bus.Subscribe(ctx, models.TopicSessionCreated, group, func(ctx context.Context, payload []byte) error {
		var event models.SessionCreatedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Printf("❌ Dropping unparseable session-created message: %v", err)
			return nil
		}

		note := sessionNotification{
			Type:      "session_created",
			SessionID: event.ID,
			Mode:      event.Match.Mode,
			Region:    event.Match.Region,
			SideA:     event.Match.SideA,
			SideB:     event.Match.SideB,
		}
		total, reached := 0, 0
		for _, side := range [][]string{event.Match.SideA, event.Match.SideB} {
			for _, participantID := range side {
				total++
				if hub.Connected(participantID) {
					reached++
				}
				hub.NotifyParticipant(participantID, note)
			}
		}
		log.Printf("📣 Session %s announced to %d/%d connected participants", event.ID, reached, total)
		return nil
	})
}
