package model

import "time"

// RunReport summarizes one scan run.
type RunReport struct {
	// Subreddit is the forum that was scanned, without the "r/" prefix.
	Subreddit string `json:"subreddit"`

	// StartedAt is when the run began. Post ages are measured against it.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended.
	FinishedAt time.Time `json:"finished_at"`

	// Fetched is the number of posts returned by the feed.
	Fetched int `json:"fetched"`

	// Examined is the number of posts that passed the age check and were
	// classified.
	Examined int `json:"examined"`

	// NotEnglish counts posts whose title was classified as another language.
	NotEnglish int `json:"not_english"`

	// AlreadyOwned counts English posts whose title is in the whitelist.
	AlreadyOwned int `json:"already_owned"`

	// PreviouslySeen counts English posts skipped because an earlier run
	// already found them.
	PreviouslySeen int `json:"previously_seen"`

	// LookupFailures counts posts that could not be classified.
	LookupFailures int `json:"lookup_failures"`

	// StoppedOnAge is true when the run ended at the first post that was
	// too old rather than at the end of the feed.
	StoppedOnAge bool `json:"stopped_on_age"`

	// Found maps newly found course titles to coupon links.
	Found Coupons `json:"found"`

	// Error is the message of the error that aborted the run, if any.
	Error string `json:"error,omitempty"`
}

// NewRunReport creates an empty report for subreddit started at startedAt.
func NewRunReport(subreddit string, startedAt time.Time) *RunReport {
	return &RunReport{
		Subreddit: subreddit,
		StartedAt: startedAt,
		Found:     make(Coupons),
	}
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether the run was aborted by an error.
func (r *RunReport) Failed() bool {
	return r.Error != ""
}
