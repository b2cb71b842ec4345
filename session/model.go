package session

import (
	"time"

	"github.com/MrEthical07/storefront/permission"
)

// Session is the stored record. Times are unix milliseconds.
type Session struct {
	Token     string          `json:"-"`
	UserID    string          `json:"userId"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Role      permission.Role `json:"role"`
	CreatedAt int64           `json:"createdAt"`
	ExpiresAt int64           `json:"expiresAt"`
}

// Identity is the user data copied into a new session.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Expired reports whether now is past ExpiresAt.
func (s *Session) Expired(now time.Time) bool {
	return now.UnixMilli() > s.ExpiresAt
}

func (s *Session) ExpiresTime() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}
