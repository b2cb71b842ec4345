// Package middleware adapts Engine session checks to HTTP handlers.
//
// # Guards
//
//   - [RequireSession]: gin middleware; validates the bearer token and stores
//     the session on the gin context.
//   - [RequireRoles]: gin middleware; runs after RequireSession and rejects
//     roles outside the allowed set.
//   - [Guard]: plain net/http wrapper doing both, for handlers mounted outside
//     gin (the metrics endpoint).
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does not
// authenticate anything itself; every decision comes from
// Engine.ValidateSession.
package middleware
