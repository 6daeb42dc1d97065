package models

import "time"

// Match is the result of partitioning one claimed group into two sides.
// SideA holds the first half of the group in arrival order, SideB the rest.
type Match struct {
	Mode     string    `json:"mode"`     // Game mode label, fixed per deployment
	Region   string    `json:"region"`   // Opaque region label
	SideA    []string  `json:"sideA"`    // Participant IDs, first half of the group
	SideB    []string  `json:"sideB"`    // Participant IDs, second half of the group
	FormedAt time.Time `json:"formedAt"` // Timestamp of the claim
}
