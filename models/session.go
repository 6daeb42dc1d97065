package models

// Session is the durable record created from a Match, addressable by its
// generated id until expiresAt passes. ExpiresAt doubles as the DynamoDB TTL
// attribute (epoch seconds); after expiry the record is unreachable whether
// or not DynamoDB has reaped it yet.
type Session struct {
	ID        string   `dynamodbav:"id" json:"id"`               // Generated UUID
	Mode      string   `dynamodbav:"mode" json:"mode"`           // Copied from the match
	Region    string   `dynamodbav:"region" json:"region"`       // Copied from the match
	SideA     []string `dynamodbav:"sideA" json:"sideA"`         // Participant IDs
	SideB     []string `dynamodbav:"sideB" json:"sideB"`         // Participant IDs
	CreatedAt string   `dynamodbav:"createdAt" json:"createdAt"` // RFC3339 creation time
	ExpiresAt int64    `dynamodbav:"expiresAt" json:"expiresAt"` // Epoch seconds, TTL attribute
}

// SessionsTable is the default DynamoDB table name for sessions
const SessionsTable = "Sessions"
