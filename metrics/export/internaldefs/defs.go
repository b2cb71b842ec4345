package internaldefs

import (
	"github.com/MrEthical07/storefront"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   storefront.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   storefront.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: storefront.MetricRegisterSuccess, Name: "storefront_register_success_total", Help: "Successful registrations."},
	{ID: storefront.MetricRegisterFailure, Name: "storefront_register_failure_total", Help: "Rejected registrations."},
	{ID: storefront.MetricVerificationCodeSent, Name: "storefront_verification_code_sent_total", Help: "Verification codes issued and handed to the mailer."},
	{ID: storefront.MetricVerifySuccess, Name: "storefront_verify_success_total", Help: "Successful registration verifications."},
	{ID: storefront.MetricVerifyFailure, Name: "storefront_verify_failure_total", Help: "Failed registration verifications."},
	{ID: storefront.MetricVerifyAttemptsExhausted, Name: "storefront_verify_attempts_exhausted_total", Help: "Codes burned after too many wrong attempts."},
	{ID: storefront.MetricLoginSuccess, Name: "storefront_login_success_total", Help: "Successful logins."},
	{ID: storefront.MetricLoginFailure, Name: "storefront_login_failure_total", Help: "Failed logins."},
	{ID: storefront.MetricLoginRateLimited, Name: "storefront_login_rate_limited_total", Help: "Logins refused by the throttle."},
	{ID: storefront.MetricPasswordUpgraded, Name: "storefront_password_upgraded_total", Help: "Password hashes rewritten with the primary algorithm."},
	{ID: storefront.MetricAdminPromoted, Name: "storefront_admin_promoted_total", Help: "Bootstrap administrators promoted at login."},
	{ID: storefront.MetricSessionCreated, Name: "storefront_session_created_total", Help: "Created sessions."},
	{ID: storefront.MetricSessionExpired, Name: "storefront_session_expired_total", Help: "Sessions found expired on validation."},
	{ID: storefront.MetricLogout, Name: "storefront_logout_total", Help: "Logouts."},
	{ID: storefront.MetricForbidden, Name: "storefront_forbidden_total", Help: "Requests rejected for insufficient role."},
	{ID: storefront.MetricPasswordResetRequest, Name: "storefront_password_reset_request_total", Help: "Password reset requests."},
	{ID: storefront.MetricPasswordResetConfirmSuccess, Name: "storefront_password_reset_confirm_success_total", Help: "Successful password resets."},
	{ID: storefront.MetricPasswordResetConfirmFailure, Name: "storefront_password_reset_confirm_failure_total", Help: "Failed password resets."},
	{ID: storefront.MetricUserRoleChanged, Name: "storefront_user_role_changed_total", Help: "Role changes made by administrators."},
	{ID: storefront.MetricOrderCreated, Name: "storefront_order_created_total", Help: "Orders placed."},
	{ID: storefront.MetricOrderPaymentConfirmed, Name: "storefront_order_payment_confirmed_total", Help: "Payments declared by customers."},
	{ID: storefront.MetricOrderStatusChanged, Name: "storefront_order_status_changed_total", Help: "Fulfilment status changes."},
	{ID: storefront.MetricOrderPaymentStatusChanged, Name: "storefront_order_payment_status_changed_total", Help: "Payment status changes made by staff."},
	{ID: storefront.MetricOrderExported, Name: "storefront_order_exported_total", Help: "Order workbook exports."},
}

var HistogramDefs = []HistogramDef{
	{ID: storefront.MetricValidateLatency, Name: "storefront_validate_latency_seconds", Help: "Session validation latency."},
}

// HistogramUpperBounds are the bucket limits in seconds, +Inf excluded.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

const AuditDroppedName = "storefront_audit_dropped_total"

// NormalizeBuckets pads or truncates raw to the eight engine buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
