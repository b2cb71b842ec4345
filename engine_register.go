package storefront

import (
	"context"

	"github.com/MrEthical07/storefront/internal/flows"
)

// Register creates (or replaces) an unverified account and mails it a
// one-time code. A verified email fails with ErrEmailAlreadyRegistered.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (User, error) {
	if e == nil {
		return User{}, ErrEngineNotReady
	}
	user, err := flows.RunRegister(ctx, flows.RegisterInput{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: in.Password,
	}, e.flows.Register)
	if err != nil {
		return User{}, err
	}
	return publicUser(user), nil
}

// ResendVerificationCode replaces the pending code of an unverified account.
// Unknown emails succeed without sending anything; verified accounts return
// ErrEmailAlreadyRegistered.
func (e *Engine) ResendVerificationCode(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return flows.RunResendVerification(ctx, email, e.flows.Register)
}

// VerifyRegistration consumes the one-time code, marks the account verified
// and opens a session. A wrong code returns *CodeMismatchError.
func (e *Engine) VerifyRegistration(ctx context.Context, email, code string) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return flows.RunVerifyRegistration(ctx, email, code, e.flows.Verify)
}
