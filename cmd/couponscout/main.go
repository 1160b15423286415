// Package main provides the entry point for the couponscout CLI.
//
// couponscout reads the newest posts of a coupon subreddit, keeps the fresh
// English ones that are not already owned, and writes a title to coupon link
// mapping for later redemption.
//
// Usage:
//
//	couponscout scan
//	couponscout scan --subreddit FreeUdemyCoupons --max-age 1
//	couponscout history
//
// See --help for all available options.
package main

// main is the entry point for couponscout.
func main() {
	Execute()
}
