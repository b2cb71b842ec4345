// Package middleware holds the gin request plumbing of the HTTP API: request
// ids, timeouts, concurrency and rate limits, body caps and request metrics.
// Session and role guards live in the top-level middleware package.
package middleware
