package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/storefront/internal"
	"github.com/MrEthical07/storefront/kv"
	"github.com/MrEthical07/storefront/permission"
)

const (
	DefaultTTL    = 7 * 24 * time.Hour
	DefaultPrefix = "session:"
)

// Errors returned by Manager. Callers match them with errors.Is.
var (
	ErrNotFound = errors.New("session: not found")
	// ErrExpired is returned once, by the first read after expiry; the
	// record is deleted on that read.
	ErrExpired     = errors.New("session: expired")
	ErrForbidden   = errors.New("session: role not allowed")
	ErrUnavailable = errors.New("session: store unavailable")
	ErrInvalidRole = errors.New("session: invalid role")
)

// Config controls session lifetime. RetentionGrace is added to the backend
// ttl so expired records stay readable long enough to be reported as expired.
type Config struct {
	TTL            time.Duration
	RetentionGrace time.Duration
	Prefix         string
}

// Manager creates, validates and destroys sessions.
type Manager struct {
	store    kv.Store
	cfg      Config
	now      func() time.Time
	newToken func() (string, error)
}

// NewManager returns a Manager over store. A zero TTL or Prefix falls back to
// DefaultTTL and DefaultPrefix.
func NewManager(store kv.Store, cfg Config) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	return &Manager{
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		newToken: internal.NewSessionToken,
	}
}

// WithClock replaces the time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) key(token string) string {
	return m.cfg.Prefix + token
}

// Create writes a session for id with role and returns it. Token collisions
// are not checked.
func (m *Manager) Create(ctx context.Context, id Identity, role permission.Role) (*Session, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	token, err := m.newToken()
	if err != nil {
		return nil, fmt.Errorf("session: token generation: %w", err)
	}

	now := m.now()
	sess := &Session{
		Token:     token,
		UserID:    id.UserID,
		Email:     id.Email,
		Name:      id.Name,
		Role:      role,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(m.cfg.TTL).UnixMilli(),
	}
	if err := kv.SetJSON(ctx, m.store, m.key(token), sess, m.cfg.TTL+m.cfg.RetentionGrace); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return sess, nil
}

// Validate loads the session for token. An expired session is deleted and
// reported as ErrExpired; later calls see ErrNotFound.
func (m *Manager) Validate(ctx context.Context, token string) (*Session, error) {
	if !internal.IsHexToken(token) {
		return nil, ErrNotFound
	}

	sess, err := kv.GetJSON[Session](ctx, m.store, m.key(token))
	switch {
	case err == nil:
	case errors.Is(err, kv.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, kv.ErrCorrupt):
		_ = m.store.Delete(ctx, m.key(token))
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if sess.Expired(m.now()) {
		if err := m.store.Delete(ctx, m.key(token)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, ErrExpired
	}
	if !sess.Role.Valid() {
		_ = m.store.Delete(ctx, m.key(token))
		return nil, ErrNotFound
	}

	sess.Token = token
	return sess, nil
}

// Destroy deletes the session. Unknown tokens are not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if !internal.IsHexToken(token) {
		return nil
	}
	if err := m.store.Delete(ctx, m.key(token)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RequireRole returns sess when its role is in allowed, ErrForbidden otherwise.
func RequireRole(sess *Session, allowed ...permission.Role) (*Session, error) {
	if sess == nil {
		return nil, ErrNotFound
	}
	if !permission.Contains(allowed, sess.Role) {
		return nil, ErrForbidden
	}
	return sess, nil
}
