// Package scout filters forum posts down to new English coupon offers.
//
// Posts are processed one at a time in the order given, which must be
// newest first. Processing stops at the first post whose age reaches the
// cutoff; later posts are never classified. For every post inside the
// window the title is cleaned, its language is checked, and titles that are
// already owned are dropped. What remains is collected into the run report.
package scout
