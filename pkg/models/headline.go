package models

import "time"

// Headline is one release from the Statistics Canada "The Daily" feed.
type Headline struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
