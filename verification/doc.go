// Package verification issues and checks short-lived numeric codes bound to
// an email address.
//
// One [Manager] serves one purpose (registration OTP or password reset) and
// owns one key prefix, so codes of different purposes never collide. Each
// email has at most one outstanding code per purpose; issuing again
// overwrites it.
//
// Verify evaluates a stored code in a fixed order: missing, exhausted,
// expired, mismatch, success. Exhausted and expired codes are deleted when
// seen, and a correct code is never confirmed once either condition holds.
package verification
