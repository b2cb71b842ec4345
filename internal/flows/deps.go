package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/storefront/internal/stores"
	"github.com/MrEthical07/storefront/session"
)

// Deps groups flow dependency sets. The Engine builds this once and delegates
// request methods to the matching flow.
type Deps struct {
	Register RegisterDeps
	Verify   VerifyDeps
	Login    LoginDeps
	Reset    PasswordResetDeps
}

// Hooks are the observability callbacks every flow accepts. Nil hooks are
// replaced with no-ops.
type Hooks struct {
	Now       func() time.Time
	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, userID, email string, err error, meta func() map[string]string)
	Warn      func(msg string, err error)
}

func (h *Hooks) normalize() {
	if h.Now == nil {
		h.Now = time.Now
	}
	if h.MetricInc == nil {
		h.MetricInc = func(int) {}
	}
	if h.EmitAudit == nil {
		h.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if h.Warn == nil {
		h.Warn = func(string, error) {}
	}
}

// Errors carries host-level sentinel errors.
type Errors struct {
	EngineNotReady         error
	Validation             error
	InvalidCredentials     error
	NotVerified            error
	EmailAlreadyRegistered error
	RegistrationIncomplete error
	LoginRateLimited       error
	NotFound               error
	Dependency             error
}

// UserAccess is the user record surface shared by the flows.
type UserAccess struct {
	GetUser func(context.Context, string) (*stores.User, error)
	PutUser func(context.Context, *stores.User) error
}

func (u UserAccess) ready() bool {
	return u.GetUser != nil && u.PutUser != nil
}

// CodeDelivery issues a verification code and mails it.
type CodeDelivery struct {
	IssueCode func(ctx context.Context, email string) (string, error)
	SendCode  func(ctx context.Context, user *stores.User, code string) error
	// EmailFailureFatal decides whether a send error aborts the flow.
	EmailFailureFatal func(error) bool
}

func (c CodeDelivery) ready() bool {
	return c.IssueCode != nil && c.SendCode != nil
}

// SessionIssuer creates a session for a user.
type SessionIssuer func(context.Context, *stores.User) (*session.Session, error)

func dependency(errs Errors, err error) error {
	return fmt.Errorf("%w: %v", errs.Dependency, err)
}

func validation(errs Errors, msg string) error {
	return fmt.Errorf("%w: %s", errs.Validation, msg)
}

func isUserNotFound(err error) bool {
	return errors.Is(err, stores.ErrUserNotFound)
}

// deliver issues and sends a code. A send failure is returned only when the
// policy treats it as fatal; otherwise it is reported through warn.
func deliver(ctx context.Context, d CodeDelivery, h Hooks, errs Errors, user *stores.User) error {
	code, err := d.IssueCode(ctx, user.Email)
	if err != nil {
		return dependency(errs, err)
	}
	if err := d.SendCode(ctx, user, code); err != nil {
		if d.EmailFailureFatal == nil || d.EmailFailureFatal(err) {
			return dependency(errs, err)
		}
		h.Warn("verification email not delivered", err)
	}
	return nil
}
