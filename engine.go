package storefront

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/storefront/email"
	"github.com/MrEthical07/storefront/internal"
	internalaudit "github.com/MrEthical07/storefront/internal/audit"
	"github.com/MrEthical07/storefront/internal/flows"
	"github.com/MrEthical07/storefront/internal/rate"
	"github.com/MrEthical07/storefront/internal/stores"
	"github.com/MrEthical07/storefront/kv"
	"github.com/MrEthical07/storefront/order"
	"github.com/MrEthical07/storefront/password"
	"github.com/MrEthical07/storefront/permission"
	"github.com/MrEthical07/storefront/session"
	"github.com/MrEthical07/storefront/verification"
	"go.uber.org/zap"
)

// Engine is the storefront auth and orders core. Build one with [New] and
// share it; all methods are safe for concurrent use.
type Engine struct {
	config    Config
	store     kv.Store
	users     *stores.UserStore
	sessions  *session.Manager
	otp       *verification.Manager
	reset     *verification.Manager
	orders    *order.Store
	passwords *password.Set
	dummyHash string
	mailer    Mailer
	limiter   *rate.Limiter
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
	log       *zap.Logger
	now       func() time.Time
	bootstrap map[string]struct{}
	flows     flows.Deps
}

// Close flushes the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events discarded because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDroppedByEvent breaks AuditDropped down by event type.
func (e *Engine) AuditDroppedByEvent() map[string]uint64 {
	if e == nil {
		return map[string]uint64{}
	}
	return e.audit.DroppedByEvent()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Ping checks the record store when it supports health checks.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	p, ok := e.store.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDependency, err)
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// ValidateSession resolves a bearer token to its session. An expired session
// is reported once as ErrSessionExpired and is gone afterwards.
func (e *Engine) ValidateSession(ctx context.Context, token string) (*Session, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}
	}()

	sess, err := e.sessions.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrExpired) {
			e.metricInc(MetricSessionExpired)
		}
		return nil, mapSessionError(err)
	}

	if e.config.Session.RevalidateRole {
		user, err := e.users.Get(ctx, sess.Email)
		switch {
		case err == nil:
			sess.Role = user.Role
		case errors.Is(err, stores.ErrUserNotFound):
			if derr := e.sessions.Destroy(ctx, token); derr != nil {
				e.log.Warn("revoking orphaned session failed", zap.Error(derr))
			}
			e.emitAudit(ctx, auditEventSessionRevoked, true, sess.UserID, sess.Email, nil, func() map[string]string {
				return map[string]string{"reason": "user_missing"}
			})
			return nil, ErrSessionNotFound
		default:
			return nil, fmt.Errorf("%w: %v", ErrDependency, err)
		}
	}
	return sess, nil
}

// RequireRole returns sess when its role is one of allowed.
func (e *Engine) RequireRole(sess *Session, allowed ...Role) (*Session, error) {
	out, err := session.RequireRole(sess, allowed...)
	if err != nil {
		if errors.Is(err, session.ErrForbidden) {
			e.metricInc(MetricForbidden)
		}
		return nil, mapSessionError(err)
	}
	return out, nil
}

// Authorize validates token and checks that its role holds perm.
func (e *Engine) Authorize(ctx context.Context, token string, perm permission.Permission) (*Session, error) {
	sess, err := e.ValidateSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if !permission.HasPermission(sess.Role, perm) {
		e.metricInc(MetricForbidden)
		e.emitAudit(ctx, auditEventForbidden, false, sess.UserID, sess.Email, ErrForbidden, func() map[string]string {
			return map[string]string{"role": string(sess.Role), "permission": perm.String()}
		})
		return nil, ErrForbidden
	}
	return sess, nil
}

// Logout destroys the session behind token. Unknown tokens succeed.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if err := e.sessions.Destroy(ctx, token); err != nil {
		return mapSessionError(err)
	}
	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, "", "", nil, nil)
	return nil
}

func (e *Engine) createSession(ctx context.Context, user *stores.User) (*Session, error) {
	sess, err := e.sessions.Create(ctx, session.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, user.Role)
	if err != nil {
		return nil, mapSessionError(err)
	}
	return sess, nil
}

func (e *Engine) isBootstrapAdmin(addr string) bool {
	_, ok := e.bootstrap[internal.NormalizeEmail(addr)]
	return ok
}

func (e *Engine) emailFailureFatal(err error) bool {
	return e.config.Email.FailurePolicy.Fatal(err)
}

func (e *Engine) sendVerificationCode(ctx context.Context, user *stores.User, code string) error {
	return e.mailer.Send(ctx, email.Message{
		To:      user.Email,
		From:    e.config.Email.From,
		Subject: e.config.Email.VerificationSubject,
		Body: fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in %d minutes.\n",
			user.Name, code, int(e.config.OTP.TTL/time.Minute)),
	})
}

func (e *Engine) sendResetCode(ctx context.Context, user *stores.User, code string) error {
	return e.mailer.Send(ctx, email.Message{
		To:      user.Email,
		From:    e.config.Email.From,
		Subject: e.config.Email.ResetSubject,
		Body: fmt.Sprintf("Hello %s,\n\nYour password reset code is %s. It expires in %d minutes.\n"+
			"If you did not ask for a reset you can ignore this message.\n",
			user.Name, code, int(e.config.Reset.TTL/time.Minute)),
	})
}

func mapSessionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, session.ErrExpired):
		return ErrSessionExpired
	case errors.Is(err, session.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, session.ErrInvalidRole):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	default:
		return fmt.Errorf("%w: %v", ErrDependency, err)
	}
}

// mapVerifyError turns a verification.Manager error into its public form.
func (e *Engine) mapVerifyError(err error) error {
	var mismatch *verification.MismatchError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &mismatch):
		return &CodeMismatchError{Remaining: mismatch.Remaining}
	case errors.Is(err, verification.ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, verification.ErrExpired):
		return ErrCodeExpired
	case errors.Is(err, verification.ErrAttemptsExhausted):
		e.metricInc(MetricVerifyAttemptsExhausted)
		return ErrAttemptsExhausted
	default:
		return fmt.Errorf("%w: %v", ErrDependency, err)
	}
}

func mapOrderError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, order.ErrInvalid):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, order.ErrExists):
		return ErrOrderExists
	case errors.Is(err, order.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, order.ErrInvalidTransition):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	default:
		return fmt.Errorf("%w: %v", ErrDependency, err)
	}
}
