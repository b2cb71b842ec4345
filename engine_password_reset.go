package storefront

import (
	"context"

	"github.com/MrEthical07/storefront/internal/flows"
)

// RequestPasswordReset mails a reset code to a verified account. Unknown
// emails succeed silently; unverified accounts get ErrRegistrationIncomplete.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return flows.RunRequestPasswordReset(ctx, email, e.flows.Reset)
}

// ResetPassword consumes the reset code, stores the new password and opens a
// session. Sessions opened before the reset stay valid.
func (e *Engine) ResetPassword(ctx context.Context, email, code, newPassword string) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return flows.RunResetPassword(ctx, email, code, newPassword, e.flows.Reset)
}
