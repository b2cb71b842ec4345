// Package audit implements async event dispatching for account and order
// operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, zap, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured audit record with timestamp, type, user, email, IP, metadata.
//
// This package owns event buffering and sink delivery. It does not decide which
// events to emit; the Engine and flow functions do.
package audit
