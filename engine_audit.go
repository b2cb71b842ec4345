package storefront

import (
	"context"
	"errors"
)

const (
	auditEventRegister                  = "register"
	auditEventResendVerification        = "verification_resend"
	auditEventVerifyRegistration        = "verification_confirm"
	auditEventLoginSuccess              = "login_success"
	auditEventLoginFailure              = "login_failure"
	auditEventLoginRateLimited          = "login_rate_limited"
	auditEventAdminPromoted             = "admin_promoted"
	auditEventLogout                    = "logout"
	auditEventSessionRevoked            = "session_revoked"
	auditEventForbidden                 = "forbidden"
	auditEventPasswordResetRequest      = "password_reset_request"
	auditEventPasswordResetConfirm      = "password_reset_confirm"
	auditEventUserRoleChanged           = "user_role_changed"
	auditEventOrderCreated              = "order_created"
	auditEventOrderPaymentConfirmed     = "order_payment_confirmed"
	auditEventOrderStatusChanged        = "order_status_changed"
	auditEventOrderPaymentStatusChanged = "order_payment_status_changed"
	auditEventOrderExported             = "orders_exported"
)

// AuditErrorCode is the stable, secret-free error label stored on audit events.
type AuditErrorCode string

const (
	auditErrValidation             AuditErrorCode = "validation"
	auditErrInvalidCredentials     AuditErrorCode = "invalid_credentials"
	auditErrNotVerified            AuditErrorCode = "not_verified"
	auditErrRateLimited            AuditErrorCode = "rate_limited"
	auditErrSessionNotFound        AuditErrorCode = "session_not_found"
	auditErrSessionExpired         AuditErrorCode = "session_expired"
	auditErrForbidden              AuditErrorCode = "forbidden"
	auditErrRegistrationIncomplete AuditErrorCode = "registration_incomplete"
	auditErrCodeNotFound           AuditErrorCode = "code_not_found"
	auditErrCodeExpired            AuditErrorCode = "code_expired"
	auditErrCodeMismatch           AuditErrorCode = "code_mismatch"
	auditErrAttemptsExhausted      AuditErrorCode = "attempts_exhausted"
	auditErrNotFound               AuditErrorCode = "not_found"
	auditErrDuplicate              AuditErrorCode = "duplicate"
	auditErrInvalidTransition      AuditErrorCode = "invalid_transition"
	auditErrUnavailable            AuditErrorCode = "backend_unavailable"
	auditErrInternal               AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if metadata != nil {
		event.Role = metadata["role"]
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrNotVerified):
		return auditErrNotVerified
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrRegistrationIncomplete):
		return auditErrRegistrationIncomplete
	case errors.Is(err, ErrCodeNotFound):
		return auditErrCodeNotFound
	case errors.Is(err, ErrCodeExpired):
		return auditErrCodeExpired
	case errors.Is(err, ErrCodeMismatch):
		return auditErrCodeMismatch
	case errors.Is(err, ErrAttemptsExhausted):
		return auditErrAttemptsExhausted
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrEmailAlreadyRegistered),
		errors.Is(err, ErrOrderExists):
		return auditErrDuplicate
	case errors.Is(err, ErrInvalidTransition):
		return auditErrInvalidTransition
	case errors.Is(err, ErrDependency):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
