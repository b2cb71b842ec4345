// Package rate implements the redis-backed login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - rl:login:  login failures per normalized email
//   - rl:loginip: login failures per client IP
package rate
