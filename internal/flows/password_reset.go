package flows

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/storefront/internal"
	"github.com/MrEthical07/storefront/session"
)

type PasswordResetMetrics struct {
	PasswordResetRequest        int
	PasswordResetConfirmSuccess int
	PasswordResetConfirmFailure int
	SessionCreated              int
}

type PasswordResetEvents struct {
	PasswordResetRequest string
	PasswordResetConfirm string
}

type PasswordResetDeps struct {
	Hooks
	UserAccess
	CodeDelivery

	MinPasswordLength int
	HashPassword      func(string) (string, error)
	// VerifyCode consumes the reset code. Errors are already in host form.
	VerifyCode    func(ctx context.Context, email, code string) error
	CreateSession SessionIssuer

	Metrics PasswordResetMetrics
	Events  PasswordResetEvents
	Errors  Errors
}

// RunRequestPasswordReset mails a reset code to a verified user. Unknown
// emails succeed without side effects.
func RunRequestPasswordReset(ctx context.Context, email string, deps PasswordResetDeps) error {
	deps.Hooks.normalize()
	if !deps.UserAccess.ready() || !deps.CodeDelivery.ready() {
		return deps.Errors.EngineNotReady
	}

	email = internal.NormalizeEmail(email)
	if email == "" || !internal.ValidEmail(email) {
		return validation(deps.Errors, "invalid email")
	}
	deps.MetricInc(deps.Metrics.PasswordResetRequest)

	user, err := deps.GetUser(ctx, email)
	if err != nil {
		if isUserNotFound(err) {
			deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, "", email, nil, func() map[string]string {
				return map[string]string{"reason": "unknown_email"}
			})
			return nil
		}
		return dependency(deps.Errors, err)
	}
	if !user.Verified {
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, user.ID, email, deps.Errors.RegistrationIncomplete, nil)
		return deps.Errors.RegistrationIncomplete
	}

	if err := deliver(ctx, deps.CodeDelivery, deps.Hooks, deps.Errors, user); err != nil {
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, user.ID, email, err, nil)
		return err
	}
	deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, user.ID, email, nil, nil)
	return nil
}

// RunResetPassword consumes the reset code, stores the new password hash and
// opens a session. Existing sessions stay valid.
func RunResetPassword(ctx context.Context, email, code, newPassword string, deps PasswordResetDeps) (*session.Session, error) {
	deps.Hooks.normalize()
	if !deps.UserAccess.ready() || deps.HashPassword == nil || deps.VerifyCode == nil || deps.CreateSession == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email = internal.NormalizeEmail(email)
	code = strings.TrimSpace(code)

	fail := func(userID string, err error) (*session.Session, error) {
		deps.MetricInc(deps.Metrics.PasswordResetConfirmFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, false, userID, email, err, nil)
		return nil, err
	}

	switch {
	case email == "" || code == "" || newPassword == "":
		return fail("", validation(deps.Errors, "email, code and new password are required"))
	case utf8.RuneCountInString(newPassword) < deps.MinPasswordLength:
		return fail("", validation(deps.Errors, "password too short"))
	}

	if err := deps.VerifyCode(ctx, email, code); err != nil {
		return fail("", err)
	}

	user, err := deps.GetUser(ctx, email)
	if err != nil {
		if isUserNotFound(err) {
			return fail("", deps.Errors.NotFound)
		}
		return fail("", dependency(deps.Errors, err))
	}

	hash, err := deps.HashPassword(newPassword)
	if err != nil {
		return fail(user.ID, dependency(deps.Errors, err))
	}
	newPassword = ""

	user.PasswordHash = hash
	user.UpdatedAt = deps.Now().UnixMilli()
	if err := deps.PutUser(ctx, user); err != nil {
		return fail(user.ID, dependency(deps.Errors, err))
	}

	sess, err := deps.CreateSession(ctx, user)
	if err != nil {
		return fail(user.ID, err)
	}

	deps.MetricInc(deps.Metrics.PasswordResetConfirmSuccess)
	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, true, user.ID, email, nil, nil)
	return sess, nil
}
