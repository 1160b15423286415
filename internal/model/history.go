package model

import "time"

// HistoryEntry is a coupon recorded by an earlier run.
type HistoryEntry struct {
	// Title is the cleaned course title.
	Title string `json:"title"`

	// URL is the coupon link.
	URL string `json:"url"`

	// Subreddit is where the post was found.
	Subreddit string `json:"subreddit"`

	// FoundAt is when the coupon was first recorded.
	FoundAt time.Time `json:"found_at"`
}
