package password

import (
	"errors"
	"fmt"
)

// Algorithm names accepted by [New].
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmSHA256   = "sha256"
)

// Errors returned by Set and the hashers when decoding stored hashes.
var (
	ErrMalformedHash   = errors.New("password: malformed hash")
	ErrUnsupportedHash = errors.New("password: unsupported hash encoding")
	ErrInvalidConfig   = errors.New("password: invalid hasher config")
)

// Hasher turns a plaintext secret into an encoded hash and checks secrets
// against encodings it owns.
type Hasher interface {
	Algorithm() string
	Owns(encoded string) bool
	Hash(secret string) (string, error)
	Verify(secret, encoded string) (bool, error)
	NeedsUpgrade(encoded string) bool
}

// Options selects and tunes the primary hasher built by [New].
type Options struct {
	Algorithm  string
	Argon2     Argon2Config
	BcryptCost int
}

// New builds the hasher named by opts.Algorithm.
func New(opts Options) (Hasher, error) {
	switch opts.Algorithm {
	case AlgorithmArgon2id, "":
		cfg := opts.Argon2
		if cfg == (Argon2Config{}) {
			cfg = DefaultArgon2Config()
		}
		return NewArgon2(cfg)
	case AlgorithmBcrypt:
		return NewBcrypt(opts.BcryptCost)
	case AlgorithmSHA256:
		return Digest{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, opts.Algorithm)
	}
}
