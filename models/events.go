package models

// Event bus topics. All topics are at-least-once delivery; consumers must
// tolerate duplicates. No ordering is guaranteed across topics.
const (
	TopicEnqueue        = "enqueue"
	TopicMatchFormed    = "match-formed"
	TopicSessionCreated = "session-created"
)

// EnqueueEvent is the payload on the "enqueue" topic. It carries exactly the
// fields of a Ticket.
type EnqueueEvent = Ticket

// MatchFormedEvent is the payload on the "match-formed" topic.
type MatchFormedEvent struct {
	Match Match `json:"match"`
}

// SessionCreatedEvent is the payload on the "session-created" topic.
type SessionCreatedEvent struct {
	ID    string `json:"id"`
	Match Match  `json:"match"`
}
