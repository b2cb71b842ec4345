package password

// Set hashes with a primary Hasher and verifies against any registered one.
type Set struct {
	primary Hasher
	all     []Hasher
}

// NewSet returns a Set. legacy hashers are consulted only for verification.
func NewSet(primary Hasher, legacy ...Hasher) *Set {
	all := make([]Hasher, 0, len(legacy)+1)
	all = append(all, primary)
	for _, h := range legacy {
		if h != nil && h.Algorithm() != primary.Algorithm() {
			all = append(all, h)
		}
	}
	return &Set{primary: primary, all: all}
}

// Hash encodes secret with the primary hasher.
func (s *Set) Hash(secret string) (string, error) {
	return s.primary.Hash(secret)
}

// Verify checks secret against encoded. upgrade is true when the secret
// matched and encoded should be rewritten with the primary hasher.
func (s *Set) Verify(secret, encoded string) (ok bool, upgrade bool, err error) {
	for _, h := range s.all {
		if !h.Owns(encoded) {
			continue
		}
		ok, err = h.Verify(secret, encoded)
		if err != nil || !ok {
			return false, false, err
		}
		if h.Algorithm() != s.primary.Algorithm() {
			return true, true, nil
		}
		return true, h.NeedsUpgrade(encoded), nil
	}
	return false, false, ErrUnsupportedHash
}

// Primary returns the hasher used for new hashes.
func (s *Set) Primary() Hasher { return s.primary }
