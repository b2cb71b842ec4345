package internal

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

// SessionTokenBytes is the entropy of a session token (256 bits).
const SessionTokenBytes = 32

var (
	errInvalidDigits = errors.New("invalid code digits")
	tenBig           = big.NewInt(10)
)

// NewSessionToken returns a random 256-bit token rendered as 64 lowercase hex chars.
func NewSessionToken() (string, error) {
	var raw [SessionTokenBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// NewCode returns a uniformly random numeric code of exactly digits characters.
// Leading zeros are kept.
func NewCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errInvalidDigits
	}

	var b strings.Builder
	b.Grow(digits)

	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, tenBig)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// IsHexToken reports whether s has the shape produced by NewSessionToken.
func IsHexToken(s string) bool {
	if len(s) != SessionTokenBytes*2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
