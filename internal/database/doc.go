// Package database provides SQLite-based run history for couponscout.
//
// The HistoryDB stores:
//   - one row per scan run with its counters and the full JSON report
//   - every coupon ever found, keyed by a SHA3-256 fingerprint of its title
//
// The fingerprint lets later runs skip courses that were already reported,
// even when the whitelist file was not updated. The database is a single
// file opened with modernc.org/sqlite, which needs no cgo.
package database
