package flows

import (
	"context"
	"strings"

	"github.com/MrEthical07/storefront/internal"
	"github.com/MrEthical07/storefront/session"
)

type VerifyMetrics struct {
	VerifySuccess  int
	VerifyFailure  int
	SessionCreated int
}

type VerifyEvents struct {
	Verify string
}

type VerifyDeps struct {
	Hooks
	UserAccess

	// VerifyCode consumes the OTP. Errors are already in host form.
	VerifyCode    func(ctx context.Context, email, code string) error
	CreateSession SessionIssuer

	Metrics VerifyMetrics
	Events  VerifyEvents
	Errors  Errors
}

// RunVerifyRegistration consumes the OTP, marks the user verified and opens
// a session.
func RunVerifyRegistration(ctx context.Context, email, code string, deps VerifyDeps) (*session.Session, error) {
	deps.Hooks.normalize()
	if !deps.UserAccess.ready() || deps.VerifyCode == nil || deps.CreateSession == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email = internal.NormalizeEmail(email)
	code = strings.TrimSpace(code)

	fail := func(userID string, err error) (*session.Session, error) {
		deps.MetricInc(deps.Metrics.VerifyFailure)
		deps.EmitAudit(ctx, deps.Events.Verify, false, userID, email, err, nil)
		return nil, err
	}

	if email == "" || code == "" {
		return fail("", validation(deps.Errors, "email and code are required"))
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

	user.Verified = true
	user.UpdatedAt = deps.Now().UnixMilli()
	if err := deps.PutUser(ctx, user); err != nil {
		return fail(user.ID, dependency(deps.Errors, err))
	}

	sess, err := deps.CreateSession(ctx, user)
	if err != nil {
		return fail(user.ID, err)
	}

	deps.MetricInc(deps.Metrics.VerifySuccess)
	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.EmitAudit(ctx, deps.Events.Verify, true, user.ID, email, nil, nil)
	return sess, nil
}
