// Package config provides configuration structures and utilities for couponscout.
// It defines the options for reading the subreddit feed, classifying post
// titles, routing traffic, and writing results and reports.
package config
