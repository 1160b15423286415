// Package model defines the data structures shared by the couponscout
// packages.
//
// This package contains the following main types:
//   - Post: A forum post from the input feed
//   - Whitelist: Course titles that are already owned
//   - Coupons: Newly found course titles mapped to their coupon links
//   - RunReport: The outcome of one scan run
//   - HistoryEntry: A coupon recorded by an earlier run
//
// The types are serializable to JSON for output files, reports and the
// history database.
package model
