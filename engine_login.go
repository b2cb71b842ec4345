package storefront

import (
	"context"

	"github.com/MrEthical07/storefront/internal/flows"
)

// Login authenticates email and password and opens a session.
//
// Unknown emails and wrong passwords both return ErrInvalidCredentials. A
// correct password on an unverified account returns ErrNotVerified. With a
// redis client configured, repeated failures return ErrLoginRateLimited until
// the cooldown passes. Client IPs attached with WithClientIP feed the
// per-IP throttle.
func (e *Engine) Login(ctx context.Context, email, password string) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return flows.RunLogin(ctx, email, password, e.flows.Login)
}
