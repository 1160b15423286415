// Package log builds the slog loggers used by couponscout.
//
// Every logger returned here wraps its output handler in a SecureHandler,
// which masks credentials before they are written:
//   - attributes whose key names a secret (cookie, authorization, token, ...)
//   - string values that look like tokens (JWT, bearer and basic credentials)
//   - coupon codes and tokens carried in URL query strings
//
// Coupon links stay readable in the log with only the code masked:
//
//	https://www.udemy.com/course/go/?couponCode=***REDACTED***
//
// The handler also works for libraries that accept a *slog.Logger, such as
// the embedded Tor launcher.
package log
