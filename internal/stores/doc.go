// Package stores persists user records in the key-value store under
// user:<normalized email>.
//
// The store owns encoding and key layout only. It does not hash passwords,
// decide verification state or assign roles; those belong to internal/flows.
package stores
