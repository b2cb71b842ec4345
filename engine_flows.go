package storefront

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/storefront/internal/flows"
	"github.com/MrEthical07/storefront/internal/rate"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (e *Engine) flowErrors() flows.Errors {
	return flows.Errors{
		EngineNotReady:         ErrEngineNotReady,
		Validation:             ErrValidation,
		InvalidCredentials:     ErrInvalidCredentials,
		NotVerified:            ErrNotVerified,
		EmailAlreadyRegistered: ErrEmailAlreadyRegistered,
		RegistrationIncomplete: ErrRegistrationIncomplete,
		LoginRateLimited:       ErrLoginRateLimited,
		NotFound:               ErrNotFound,
		Dependency:             ErrDependency,
	}
}

func (e *Engine) flowHooks() flows.Hooks {
	return flows.Hooks{
		Now:       e.now,
		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit: e.emitAudit,
		Warn: func(msg string, err error) {
			e.log.Warn(msg, zap.Error(err))
		},
	}
}

func (e *Engine) userAccess() flows.UserAccess {
	return flows.UserAccess{
		GetUser: e.users.Get,
		PutUser: e.users.Put,
	}
}

// buildFlowDeps wires every flow once at Build time.
func (e *Engine) buildFlowDeps() flows.Deps {
	hooks := e.flowHooks()
	errs := e.flowErrors()
	users := e.userAccess()

	otpDelivery := flows.CodeDelivery{
		IssueCode:         e.otp.Issue,
		SendCode:          e.sendVerificationCode,
		EmailFailureFatal: e.emailFailureFatal,
	}
	resetDelivery := flows.CodeDelivery{
		IssueCode:         e.reset.Issue,
		SendCode:          e.sendResetCode,
		EmailFailureFatal: e.emailFailureFatal,
	}

	login := flows.LoginDeps{
		Hooks:               hooks,
		UserAccess:          users,
		ClientIPFromContext: clientIPFromContext,
		VerifyPassword:      e.passwords.Verify,
		DummyHash:           e.dummyHash,
		HashPassword:        e.passwords.Hash,
		UpgradeOnLogin:      e.config.Password.UpgradeOnLogin,
		IsBootstrapAdmin:    e.isBootstrapAdmin,
		CreateSession:       e.createSession,
		Metrics: flows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginRateLimited: int(MetricLoginRateLimited),
			SessionCreated:   int(MetricSessionCreated),
			PasswordUpgraded: int(MetricPasswordUpgraded),
			AdminPromoted:    int(MetricAdminPromoted),
		},
		Events: flows.LoginEvents{
			LoginSuccess:     auditEventLoginSuccess,
			LoginFailure:     auditEventLoginFailure,
			LoginRateLimited: auditEventLoginRateLimited,
			AdminPromoted:    auditEventAdminPromoted,
		},
		Errors: errs,
	}
	if e.limiter != nil {
		login.CheckLoginRate = func(ctx context.Context, email, ip string) error {
			return mapRateError(e.limiter.CheckLogin(ctx, email, ip))
		}
		login.IncrementLoginRate = func(ctx context.Context, email, ip string) error {
			return mapRateError(e.limiter.IncrementLogin(ctx, email, ip))
		}
		login.ResetLoginRate = func(ctx context.Context, email, ip string) error {
			return mapRateError(e.limiter.ResetLogin(ctx, email, ip))
		}
	}

	return flows.Deps{
		Register: flows.RegisterDeps{
			Hooks:             hooks,
			UserAccess:        users,
			CodeDelivery:      otpDelivery,
			MinPasswordLength: e.config.Account.MinPasswordLength,
			IsBootstrapAdmin:  e.isBootstrapAdmin,
			NewUserID:         uuid.NewString,
			HashPassword:      e.passwords.Hash,
			Metrics: flows.RegisterMetrics{
				RegisterSuccess: int(MetricRegisterSuccess),
				RegisterFailure: int(MetricRegisterFailure),
				CodeSent:        int(MetricVerificationCodeSent),
			},
			Events: flows.RegisterEvents{
				Register: auditEventRegister,
				Resend:   auditEventResendVerification,
			},
			Errors: errs,
		},
		Verify: flows.VerifyDeps{
			Hooks:      hooks,
			UserAccess: users,
			VerifyCode: func(ctx context.Context, email, code string) error {
				return e.mapVerifyError(e.otp.Verify(ctx, email, code))
			},
			CreateSession: e.createSession,
			Metrics: flows.VerifyMetrics{
				VerifySuccess:  int(MetricVerifySuccess),
				VerifyFailure:  int(MetricVerifyFailure),
				SessionCreated: int(MetricSessionCreated),
			},
			Events: flows.VerifyEvents{Verify: auditEventVerifyRegistration},
			Errors: errs,
		},
		Login: login,
		Reset: flows.PasswordResetDeps{
			Hooks:             hooks,
			UserAccess:        users,
			CodeDelivery:      resetDelivery,
			MinPasswordLength: e.config.Account.MinPasswordLength,
			HashPassword:      e.passwords.Hash,
			VerifyCode: func(ctx context.Context, email, code string) error {
				return e.mapVerifyError(e.reset.Verify(ctx, email, code))
			},
			CreateSession: e.createSession,
			Metrics: flows.PasswordResetMetrics{
				PasswordResetRequest:        int(MetricPasswordResetRequest),
				PasswordResetConfirmSuccess: int(MetricPasswordResetConfirmSuccess),
				PasswordResetConfirmFailure: int(MetricPasswordResetConfirmFailure),
				SessionCreated:              int(MetricSessionCreated),
			},
			Events: flows.PasswordResetEvents{
				PasswordResetRequest: auditEventPasswordResetRequest,
				PasswordResetConfirm: auditEventPasswordResetConfirm,
			},
			Errors: errs,
		},
	}
}

// mapRateError lifts limiter errors into the flow's error space.
func mapRateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrLoginRateLimited
	default:
		return fmt.Errorf("%w: %v", ErrDependency, err)
	}
}
