// Package session issues and checks bearer sessions stored under
// "session:<token>".
//
// A session snapshots the user's role at issuance. Validation always reads
// the store; an expired record is deleted by the first reader that sees it,
// after which the token is simply unknown.
//
// Authorization policy beyond the role check in [RequireRole] belongs to the
// caller.
package session
