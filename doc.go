// Package storefront is the auth and orders core of a small storefront,
// persisted in a key-value store.
//
// Accounts register with a mailed one-time code, log in with a password and
// carry opaque bearer sessions. Orders are priced at checkout, confirmed by
// the paying customer and moved through fulfilment by staff. Engine methods
// are safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// storefront is the public surface. It exposes [Engine], [Builder], [Config]
// and value types (Session, User, Order, MetricsSnapshot). Flow orchestration,
// the user store, the login throttle and audit dispatch live under internal/
// and are never exported. Records go through the kv package, which has redis
// and SQL backends.
//
// # Errors
//
// Every error returned by an Engine method matches one of the exported
// sentinels with errors.Is. [KindOf] groups them for transports; a wrong
// verification code is a *[CodeMismatchError].
//
// # Time
//
// Stored times are unix milliseconds. Expiry is decided on read, so a record
// past its deadline is reported as expired exactly once and then removed.
package storefront
