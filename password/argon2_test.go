package password

import (
	"errors"
	"strings"
	"testing"
)

func fastArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgon2HashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	hash, err := hasher.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}
	if !hasher.Owns(hash) {
		t.Fatal("expected hasher to own its own encoding")
	}

	ok, err := hasher.Verify("secret1", hash)
	if err != nil || !ok {
		t.Fatalf("Verify(correct) = %v, %v", ok, err)
	}
	ok, err = hasher.Verify("secret2", hash)
	if err != nil || ok {
		t.Fatalf("Verify(wrong) = %v, %v", ok, err)
	}
}

func TestArgon2SaltsDiffer(t *testing.T) {
	hasher, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	a, _ := hasher.Hash("same")
	b, _ := hasher.Hash("same")
	if a == b {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestArgon2NeedsUpgrade(t *testing.T) {
	weak, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2(weak) failed: %v", err)
	}
	hash, _ := weak.Hash("secret1")

	stronger := fastArgon2Config()
	stronger.Time = 2
	strong, err := NewArgon2(stronger)
	if err != nil {
		t.Fatalf("NewArgon2(strong) failed: %v", err)
	}

	if !strong.NeedsUpgrade(hash) {
		t.Fatal("expected weaker hash to need upgrade")
	}
	if weak.NeedsUpgrade(hash) {
		t.Fatal("expected same-parameter hash not to need upgrade")
	}
}

func TestArgon2MalformedHash(t *testing.T) {
	hasher, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	if _, err := hasher.Verify("x", "not-a-phc-hash"); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash, got %v", err)
	}
	if _, err := hasher.Verify("x", "$argon2id$v=18$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA==$AAAA"); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash for wrong version, got %v", err)
	}
}

func TestArgon2RejectsWeakConfig(t *testing.T) {
	cfg := fastArgon2Config()
	cfg.Memory = 1024
	if _, err := NewArgon2(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
