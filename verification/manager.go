package verification

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/storefront/internal"
	"github.com/MrEthical07/storefront/kv"
)

const (
	DefaultMaxAttempts = 5
	DefaultDigits      = 6
)

// Errors returned by Manager. A wrong code is reported as *MismatchError,
// which matches ErrMismatch.
var (
	ErrNotFound          = errors.New("verification: code not found")
	ErrExpired           = errors.New("verification: code expired")
	ErrAttemptsExhausted = errors.New("verification: attempts exhausted")
	ErrMismatch          = errors.New("verification: code mismatch")
	ErrUnavailable       = errors.New("verification: store unavailable")
	ErrInvalidConfig     = errors.New("verification: invalid config")
)

// MismatchError reports a wrong code and how many tries are left.
type MismatchError struct {
	Remaining int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("verification: code mismatch, %d attempts remaining", e.Remaining)
}

func (e *MismatchError) Is(target error) bool { return target == ErrMismatch }

// Record is the stored code. Times are unix milliseconds.
type Record struct {
	Code      string `json:"code"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
	Attempts  int    `json:"attempts"`
}

// Config describes one code purpose.
type Config struct {
	Prefix         string
	TTL            time.Duration
	MaxAttempts    int
	Digits         int
	RetentionGrace time.Duration
}

// OTPConfig is the registration code purpose: "otp:" keys, 10 minute codes.
func OTPConfig() Config {
	return Config{Prefix: "otp:", TTL: 10 * time.Minute, MaxAttempts: DefaultMaxAttempts, Digits: DefaultDigits}
}

// ResetConfig is the password reset purpose: "reset:" keys, 30 minute codes.
func ResetConfig() Config {
	return Config{Prefix: "reset:", TTL: 30 * time.Minute, MaxAttempts: DefaultMaxAttempts, Digits: DefaultDigits}
}

// Manager issues and verifies codes of a single purpose.
type Manager struct {
	store   kv.Store
	cfg     Config
	now     func() time.Time
	newCode func(int) (string, error)
}

// NewManager validates cfg and returns a Manager for its purpose. Prefix must
// end with ':' and TTL must be positive; MaxAttempts and Digits default to
// DefaultMaxAttempts and DefaultDigits.
func NewManager(store kv.Store, cfg Config) (*Manager, error) {
	if cfg.Prefix == "" || !strings.HasSuffix(cfg.Prefix, ":") {
		return nil, fmt.Errorf("%w: prefix must be non-empty and end with ':'", ErrInvalidConfig)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: ttl must be > 0", ErrInvalidConfig)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Digits == 0 {
		cfg.Digits = DefaultDigits
	}
	return &Manager{
		store:   store,
		cfg:     cfg,
		now:     time.Now,
		newCode: internal.NewCode,
	}, nil
}

// WithClock replaces the time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Prefix returns the key prefix owned by m.
func (m *Manager) Prefix() string { return m.cfg.Prefix }

func (m *Manager) key(email string) string {
	return m.cfg.Prefix + email
}

// Issue generates a code for email with the configured TTL.
func (m *Manager) Issue(ctx context.Context, email string) (string, error) {
	return m.IssueWithTTL(ctx, email, m.cfg.TTL)
}

// IssueWithTTL generates a code valid for ttl and replaces any outstanding one.
func (m *Manager) IssueWithTTL(ctx context.Context, email string, ttl time.Duration) (string, error) {
	if email == "" {
		return "", ErrNotFound
	}
	code, err := m.newCode(m.cfg.Digits)
	if err != nil {
		return "", fmt.Errorf("verification: code generation: %w", err)
	}

	now := m.now()
	rec := Record{
		Code:      code,
		Email:     email,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
	}
	if err := kv.SetJSON(ctx, m.store, m.key(email), rec, ttl+m.cfg.RetentionGrace); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return code, nil
}

// Verify checks submitted against the outstanding code for email and
// consumes it on success.
func (m *Manager) Verify(ctx context.Context, email, submitted string) error {
	rec, err := m.Get(ctx, email)
	if err != nil {
		return err
	}

	if rec.Attempts >= m.cfg.MaxAttempts {
		if err := m.Discard(ctx, email); err != nil {
			return err
		}
		return ErrAttemptsExhausted
	}

	now := m.now()
	if now.UnixMilli() > rec.ExpiresAt {
		if err := m.Discard(ctx, email); err != nil {
			return err
		}
		return ErrExpired
	}

	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(submitted)), []byte(rec.Code)) != 1 {
		rec.Attempts++
		remaining := time.UnixMilli(rec.ExpiresAt).Sub(now) + m.cfg.RetentionGrace
		if remaining <= 0 {
			remaining = time.Millisecond
		}
		if err := kv.SetJSON(ctx, m.store, m.key(email), rec, remaining); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		left := m.cfg.MaxAttempts - rec.Attempts
		if left < 0 {
			left = 0
		}
		return &MismatchError{Remaining: left}
	}

	return m.Discard(ctx, email)
}

// Get returns the outstanding record for email without touching it.
func (m *Manager) Get(ctx context.Context, email string) (*Record, error) {
	if email == "" {
		return nil, ErrNotFound
	}
	rec, err := kv.GetJSON[Record](ctx, m.store, m.key(email))
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, kv.ErrNotFound), errors.Is(err, kv.ErrInvalidKey):
		return nil, ErrNotFound
	case errors.Is(err, kv.ErrCorrupt):
		_ = m.store.Delete(ctx, m.key(email))
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// Discard deletes the outstanding code for email, if any.
func (m *Manager) Discard(ctx context.Context, email string) error {
	if email == "" {
		return nil
	}
	if err := m.store.Delete(ctx, m.key(email)); err != nil && !errors.Is(err, kv.ErrInvalidKey) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
