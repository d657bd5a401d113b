package models

import "time"

// Anime is reference metadata used to enrich notifications. The notification
// core only ever reads it; a missing row means the notification goes out with
// the raw release title.
type Anime struct {
	ID             string    `json:"id"`
	CanonicalTitle string    `json:"canonical_title"`
	QueryTitle     string    `json:"query_title"`
	ImageURL       string    `json:"image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
