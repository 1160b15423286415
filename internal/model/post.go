package model

import "time"

// Day is the unit used for post age thresholds.
const Day = 24 * time.Hour

// Post is a single forum post.
type Post struct {
	// Title is the post title, usually the course name with promotional
	// markup such as "[100% off]".
	Title string `json:"title"`

	// CreatedAt is when the post was published.
	CreatedAt time.Time `json:"created_at"`

	// URL is the coupon link the post points to.
	URL string `json:"url"`

	// Permalink is the discussion page of the post.
	Permalink string `json:"permalink,omitempty"`
}

// Age returns the time elapsed between CreatedAt and now.
// Posts dated in the future have age zero.
func (p Post) Age(now time.Time) time.Duration {
	age := now.Sub(p.CreatedAt)
	if age < 0 {
		return 0
	}
	return age
}

// AgeDays returns the number of whole days elapsed since the post was
// created, rounded down.
func (p Post) AgeDays(now time.Time) int {
	return int(p.Age(now) / Day)
}
