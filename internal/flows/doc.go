// Package flows contains the orchestrators behind each account operation of
// the Engine: register, resend, verify, login and password reset.
//
// Each Run function takes a typed dependency struct and returns results with
// no side effects beyond those dependencies. Ownership of stores, managers,
// the audit dispatcher and metrics stays with the Engine.
//
// This package must not import the root storefront package; host sentinel
// errors arrive through [Errors].
package flows
