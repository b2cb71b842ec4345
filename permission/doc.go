// Package permission is the closed role model of the storefront.
//
// There are exactly four roles. Each maps to a fixed [Mask] of permissions
// through an exhaustive switch; strings coming from requests or stored
// records must go through [ParseRole] before they are trusted.
//
// The package is pure: no I/O, no mutable state.
package permission
