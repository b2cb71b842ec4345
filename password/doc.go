// Package password hashes and verifies account secrets.
//
// Three encodings are understood:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>   (Argon2)
//	$2a$<cost>$<salt+hash>                                         (Bcrypt)
//	<64 lowercase hex chars>                                        (Digest, unsalted SHA-256)
//
// A [Set] hashes with one primary [Hasher] and verifies against every
// registered one, so records written by an older algorithm keep working
// and can be rehashed after the next successful login.
//
// Password policy (minimum length) is enforced by the caller, not here.
package password
