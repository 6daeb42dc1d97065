package models

import (
	"encoding/json"
	"time"
)

// Ticket is a single participant's request to be matched. It is immutable
// once enqueued: a ticket is consumed exactly once by a successful group
// claim, or pushed back to its bucket when a claim has to be undone.
type Ticket struct {
	ParticipantID string    `json:"participantId"` // Opaque participant identifier
	Rating        int       `json:"rating"`        // Opaque ordering key, not derived here
	EnqueuedAt    time.Time `json:"enqueuedAt"`    // Stamped by the enqueue endpoint
}

// MarshalBinary lets Redis clients store a ticket directly in a list entry.
func (t Ticket) MarshalBinary() ([]byte, error) {
	return json.Marshal(t)
}

// UnmarshalBinary restores a ticket from a list entry.
func (t *Ticket) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, t)
}
