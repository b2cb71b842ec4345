// Package order stores storefront orders and the per-customer order index.
//
// Orders live under "order:<number>". Each customer's orders are also listed,
// newest first, under "customer-orders:<email>". The index is written after
// the order itself and is not transactional with it, so readers skip index
// entries whose order is missing and prune them on the way out.
//
// Access control is the caller's job; this package trusts its arguments.
package order
