package flows

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/storefront/internal"
	"github.com/MrEthical07/storefront/internal/stores"
	"github.com/MrEthical07/storefront/permission"
)

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type RegisterMetrics struct {
	RegisterSuccess int
	RegisterFailure int
	CodeSent        int
}

type RegisterEvents struct {
	Register string
	Resend   string
}

type RegisterDeps struct {
	Hooks
	UserAccess
	CodeDelivery

	MinPasswordLength int
	IsBootstrapAdmin  func(email string) bool
	NewUserID         func() string
	HashPassword      func(string) (string, error)

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  Errors
}

func (d *RegisterDeps) normalize() {
	d.Hooks.normalize()
	if d.IsBootstrapAdmin == nil {
		d.IsBootstrapAdmin = func(string) bool { return false }
	}
}

// RunRegister creates or overwrites an unverified user and sends it an OTP.
// A verified record for the same email is never overwritten.
func RunRegister(ctx context.Context, in RegisterInput, deps RegisterDeps) (*stores.User, error) {
	deps.normalize()
	if !deps.UserAccess.ready() || !deps.CodeDelivery.ready() || deps.HashPassword == nil || deps.NewUserID == nil {
		return nil, deps.Errors.EngineNotReady
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = internal.NormalizeEmail(in.Email)

	fail := func(err error, reason string) (*stores.User, error) {
		deps.MetricInc(deps.Metrics.RegisterFailure)
		deps.EmitAudit(ctx, deps.Events.Register, false, "", in.Email, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}

	switch {
	case in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "":
		return fail(validation(deps.Errors, "name, email, phone and password are required"), "missing_fields")
	case !internal.ValidEmail(in.Email):
		return fail(validation(deps.Errors, "invalid email"), "invalid_email")
	case utf8.RuneCountInString(in.Password) < deps.MinPasswordLength:
		return fail(validation(deps.Errors, "password too short"), "password_policy")
	}

	existing, err := deps.GetUser(ctx, in.Email)
	switch {
	case err == nil && existing.Verified:
		return fail(deps.Errors.EmailAlreadyRegistered, "duplicate")
	case err != nil && !isUserNotFound(err):
		return fail(dependency(deps.Errors, err), "user_lookup")
	}

	hash, err := deps.HashPassword(in.Password)
	if err != nil {
		return fail(dependency(deps.Errors, err), "hash")
	}
	in.Password = ""

	role := permission.Cliente
	if deps.IsBootstrapAdmin(in.Email) {
		role = permission.Administrador
	}

	now := deps.Now().UnixMilli()
	user := &stores.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Verified:     false,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if existing != nil && existing.ID != "" {
		user.ID = existing.ID
	} else {
		user.ID = deps.NewUserID()
	}

	if err := deps.PutUser(ctx, user); err != nil {
		return fail(dependency(deps.Errors, err), "user_write")
	}
	if err := deliver(ctx, deps.CodeDelivery, deps.Hooks, deps.Errors, user); err != nil {
		return fail(err, "code_delivery")
	}

	deps.MetricInc(deps.Metrics.CodeSent)
	deps.MetricInc(deps.Metrics.RegisterSuccess)
	deps.EmitAudit(ctx, deps.Events.Register, true, user.ID, user.Email, nil, func() map[string]string {
		return map[string]string{"role": string(role)}
	})
	return user, nil
}

// RunResendVerification issues a fresh OTP for a pending registration.
// Unknown emails succeed silently.
func RunResendVerification(ctx context.Context, email string, deps RegisterDeps) error {
	deps.normalize()
	if !deps.UserAccess.ready() || !deps.CodeDelivery.ready() {
		return deps.Errors.EngineNotReady
	}

	email = internal.NormalizeEmail(email)
	if email == "" || !internal.ValidEmail(email) {
		return validation(deps.Errors, "invalid email")
	}

	user, err := deps.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, stores.ErrUserNotFound) {
			deps.EmitAudit(ctx, deps.Events.Resend, true, "", email, nil, func() map[string]string {
				return map[string]string{"reason": "unknown_email"}
			})
			return nil
		}
		return dependency(deps.Errors, err)
	}
	if user.Verified {
		deps.EmitAudit(ctx, deps.Events.Resend, false, user.ID, email, deps.Errors.EmailAlreadyRegistered, nil)
		return deps.Errors.EmailAlreadyRegistered
	}

	if err := deliver(ctx, deps.CodeDelivery, deps.Hooks, deps.Errors, user); err != nil {
		deps.EmitAudit(ctx, deps.Events.Resend, false, user.ID, email, err, nil)
		return err
	}
	deps.MetricInc(deps.Metrics.CodeSent)
	deps.EmitAudit(ctx, deps.Events.Resend, true, user.ID, email, nil, nil)
	return nil
}
