package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/storefront/internal"
	"github.com/MrEthical07/storefront/permission"
	"github.com/MrEthical07/storefront/session"
)

type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
	SessionCreated   int
	PasswordUpgraded int
	AdminPromoted    int
}

type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
	AdminPromoted    string
}

type LoginDeps struct {
	Hooks
	UserAccess

	ClientIPFromContext func(context.Context) string

	// Throttle hooks are optional; nil disables throttling.
	CheckLoginRate     func(ctx context.Context, email, ip string) error
	IncrementLoginRate func(ctx context.Context, email, ip string) error
	ResetLoginRate     func(ctx context.Context, email, ip string) error

	VerifyPassword func(secret, encoded string) (ok, upgrade bool, err error)
	// DummyHash is verified, and the result discarded, when the email has
	// no account. Empty skips the check.
	DummyHash        string
	HashPassword     func(string) (string, error)
	UpgradeOnLogin   bool
	IsBootstrapAdmin func(email string) bool
	CreateSession    SessionIssuer

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  Errors
}

// RunLogin authenticates email/password and opens a session. Unknown users
// and wrong passwords fail identically.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*session.Session, error) {
	deps.Hooks.normalize()
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.IsBootstrapAdmin == nil {
		deps.IsBootstrapAdmin = func(string) bool { return false }
	}
	if !deps.UserAccess.ready() || deps.VerifyPassword == nil || deps.CreateSession == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email = internal.NormalizeEmail(email)
	ip := deps.ClientIPFromContext(ctx)

	if email == "" || password == "" {
		return nil, validation(deps.Errors, "email and password are required")
	}

	rateLimited := func(userID string) (*session.Session, error) {
		deps.MetricInc(deps.Metrics.LoginRateLimited)
		deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, userID, email, deps.Errors.LoginRateLimited, nil)
		return nil, deps.Errors.LoginRateLimited
	}
	// failed records a credential failure against the throttle.
	failed := func(userID, reason string) (*session.Session, error) {
		if deps.IncrementLoginRate != nil {
			if err := deps.IncrementLoginRate(ctx, email, ip); err != nil {
				if errors.Is(err, deps.Errors.LoginRateLimited) {
					return rateLimited(userID)
				}
				deps.Warn("login throttle increment failed", err)
			}
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, userID, email, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, deps.Errors.InvalidCredentials
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, email, ip); err != nil {
			if errors.Is(err, deps.Errors.LoginRateLimited) {
				return rateLimited("")
			}
			deps.Warn("login throttle check failed", err)
		}
	}

	user, err := deps.GetUser(ctx, email)
	if err != nil {
		if isUserNotFound(err) {
			if deps.DummyHash != "" {
				_, _, _ = deps.VerifyPassword(password, deps.DummyHash)
			}
			return failed("", "user_not_found")
		}
		return nil, dependency(deps.Errors, err)
	}

	ok, upgrade, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return failed(user.ID, "password_mismatch")
	}

	if !user.Verified {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, user.ID, email, deps.Errors.NotVerified, func() map[string]string {
			return map[string]string{"reason": "pending_verification"}
		})
		return nil, deps.Errors.NotVerified
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, email, ip); err != nil {
			deps.Warn("login throttle reset failed", err)
		}
	}

	upgraded := false
	if deps.UpgradeOnLogin && upgrade && deps.HashPassword != nil {
		if hash, err := deps.HashPassword(password); err == nil {
			user.PasswordHash = hash
			upgraded = true
		} else {
			deps.Warn("password hash upgrade generation failed", err)
		}
	}
	password = ""

	promoted := deps.IsBootstrapAdmin(email) && user.Role != permission.Administrador
	if promoted {
		user.Role = permission.Administrador
	}

	if promoted || upgraded {
		user.UpdatedAt = deps.Now().UnixMilli()
		if err := deps.PutUser(ctx, user); err != nil {
			if promoted {
				deps.MetricInc(deps.Metrics.LoginFailure)
				return nil, dependency(deps.Errors, err)
			}
			deps.Warn("password hash upgrade update failed", err)
			upgraded = false
		}
	}
	if upgraded {
		deps.MetricInc(deps.Metrics.PasswordUpgraded)
	}
	if promoted {
		deps.MetricInc(deps.Metrics.AdminPromoted)
		deps.EmitAudit(ctx, deps.Events.AdminPromoted, true, user.ID, email, nil, nil)
	}

	sess, err := deps.CreateSession(ctx, user)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.ID, email, nil, func() map[string]string {
		return map[string]string{"role": string(sess.Role)}
	})
	return sess, nil
}
