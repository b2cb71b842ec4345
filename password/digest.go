package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const digestLen = sha256.Size * 2

// Digest is the deterministic SHA-256 hex encoding used by early storefront
// records. The same secret always yields the same 64-char string.
type Digest struct{}

func (Digest) Algorithm() string { return AlgorithmSHA256 }

func (Digest) Owns(encoded string) bool {
	if len(encoded) != digestLen {
		return false
	}
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func (Digest) Hash(secret string) (string, error) {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:]), nil
}

func (d Digest) Verify(secret, encoded string) (bool, error) {
	if !d.Owns(encoded) {
		return false, ErrMalformedHash
	}
	computed, _ := d.Hash(secret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(encoded)) == 1, nil
}

func (Digest) NeedsUpgrade(string) bool { return false }
