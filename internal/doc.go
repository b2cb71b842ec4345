// Package internal holds the storefront helpers that are not part of the
// public API: session token and verification code generation, and email
// normalization.
//
// Sub-packages:
//
//   - audit: event sinks and the async dispatcher
//   - flows: register, verify, login and password reset orchestration
//   - rate: redis login throttle
//   - stores: user records
//   - httpapi, config, logger: the HTTP server shell
package internal
