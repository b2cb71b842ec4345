// Package email defines the outbound mail contract used for verification and
// reset codes, plus an SMTP sender and a development sender that logs.
package email
