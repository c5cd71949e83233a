// Package prompt defines the prompt record owned by the record store.
package prompt

import "time"

// Prompt is a reusable prompt template. Reads are public; mutations require
// the admin capability.
type Prompt struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
