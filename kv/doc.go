// Package kv is the key-value blob store every storefront record lives in.
//
// Keys are plain strings grouped by prefix (user:, session:, otp:, reset:,
// order:, customer-orders:). A [Store] namespaces them on write and strips
// the namespace again from [Store.List] results.
//
// Backends make no transactional promises. Concurrent writers on the same key
// resolve by last write wins.
//
// Records that expire carry their own expiry and are evicted by the reader.
// The ttl passed to Set only lets the backend reclaim keys that are never read
// again; callers must pass a ttl no shorter than the record's logical lifetime.
package kv
