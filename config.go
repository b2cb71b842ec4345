package storefront

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/storefront/email"
	"github.com/MrEthical07/storefront/password"
)

// Config is the full Engine configuration. Start from [DefaultConfig] and
// override fields; [Builder.Build] validates it.
type Config struct {
	Store    StoreConfig
	Session  SessionConfig
	OTP      CodeConfig
	Reset    CodeConfig
	Account  AccountConfig
	Password PasswordConfig
	Email    EmailConfig
	Orders   OrdersConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig namespaces every key the Engine writes.
type StoreConfig struct {
	Namespace string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime.
//
// RetentionGrace keeps an expired record in the backend long enough for the
// next read to report ErrSessionExpired instead of ErrSessionNotFound. It
// must be positive.
// RevalidateRole replaces the session's role snapshot with the user's live
// role on every validation, at the cost of one extra read.
type SessionConfig struct {
	TTL            time.Duration
	RetentionGrace time.Duration
	Prefix         string
	RevalidateRole bool
}

/*
====================================
VERIFICATION CODE CONFIG
====================================
*/

// CodeConfig describes one verification code purpose.
type CodeConfig struct {
	Prefix      string
	TTL         time.Duration
	MaxAttempts int
	Digits      int
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

type AccountConfig struct {
	// BootstrapAdmins are emails promoted to administrador on registration
	// and login. Compared after normalization.
	BootstrapAdmins   []string
	MinPasswordLength int
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the primary hash algorithm. Hashes produced by the
// other supported algorithms still verify; with UpgradeOnLogin they are
// rewritten on the next successful login.
type PasswordConfig struct {
	Algorithm      string // "argon2id" (default), "bcrypt" or "sha256"
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	BcryptCost     int
	UpgradeOnLogin bool
}

/*
====================================
EMAIL CONFIG
====================================
*/

type EmailConfig struct {
	From                string
	FailurePolicy       email.Policy
	VerificationSubject string
	ResetSubject        string
}

/*
====================================
ORDERS CONFIG
====================================
*/

// OrdersConfig holds pricing in minor currency units.
type OrdersConfig struct {
	DeliveryFee           int64
	FreeDeliveryThreshold int64
	Currency              string
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig tunes the login throttle. The throttle needs a redis client.
type SecurityConfig struct {
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULTS
====================================
*/

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TTL:            7 * 24 * time.Hour,
			RetentionGrace: 24 * time.Hour,
			Prefix:         "session:",
		},
		OTP: CodeConfig{
			Prefix:      "otp:",
			TTL:         10 * time.Minute,
			MaxAttempts: 5,
			Digits:      6,
		},
		Reset: CodeConfig{
			Prefix:      "reset:",
			TTL:         30 * time.Minute,
			MaxAttempts: 5,
			Digits:      6,
		},
		Account: AccountConfig{
			MinPasswordLength: 6,
		},
		Password: PasswordConfig{
			Algorithm:      password.AlgorithmArgon2id,
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			BcryptCost:     12,
			UpgradeOnLogin: true,
		},
		Email: EmailConfig{
			From:                "no-reply@storefront.local",
			FailurePolicy:       email.PolicyStrict,
			VerificationSubject: "Your verification code",
			ResetSubject:        "Your password reset code",
		},
		Orders: OrdersConfig{
			DeliveryFee:           0,
			FreeDeliveryThreshold: 0,
			Currency:              "BRL",
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   true,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Account.BootstrapAdmins != nil {
		out.Account.BootstrapAdmins = append([]string(nil), cfg.Account.BootstrapAdmins...)
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.RetentionGrace <= 0 {
		return errors.New("Session RetentionGrace must be > 0")
	}
	if !validPrefix(c.Session.Prefix) {
		return errors.New("Session Prefix must be non-empty and end with ':'")
	}

	// Codes
	if err := c.OTP.validate("OTP"); err != nil {
		return err
	}
	if err := c.Reset.validate("Reset"); err != nil {
		return err
	}
	if c.OTP.Prefix == c.Reset.Prefix {
		return errors.New("OTP and Reset prefixes must differ")
	}
	for _, p := range []string{c.OTP.Prefix, c.Reset.Prefix} {
		if p == c.Session.Prefix || p == "user:" || p == "order:" || p == "customer-orders:" {
			return errors.New("verification code prefix collides with another record type")
		}
	}

	// Account
	if c.Account.MinPasswordLength < 1 {
		return errors.New("Account MinPasswordLength must be >= 1")
	}
	for _, e := range c.Account.BootstrapAdmins {
		if strings.TrimSpace(e) == "" {
			return errors.New("Account BootstrapAdmins must not contain empty entries")
		}
	}

	// Password
	switch c.Password.Algorithm {
	case password.AlgorithmArgon2id:
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
		if c.Password.SaltLength < 16 {
			return errors.New("Password SaltLength must be >= 16")
		}
		if c.Password.KeyLength < 16 {
			return errors.New("Password KeyLength must be >= 16")
		}
	case password.AlgorithmBcrypt:
		if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
			return errors.New("Password BcryptCost must be between 4 and 31")
		}
	case password.AlgorithmSHA256:
	default:
		return errors.New("Password Algorithm must be argon2id, bcrypt or sha256")
	}

	// Email
	if strings.TrimSpace(c.Email.From) == "" {
		return errors.New("Email From must be set")
	}
	switch c.Email.FailurePolicy {
	case email.PolicyStrict, email.PolicyBestEffort:
	default:
		return errors.New("Email FailurePolicy must be strict or best-effort")
	}

	// Orders
	if c.Orders.DeliveryFee < 0 {
		return errors.New("Orders DeliveryFee must be >= 0")
	}
	if c.Orders.FreeDeliveryThreshold < 0 {
		return errors.New("Orders FreeDeliveryThreshold must be >= 0")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}

func (c CodeConfig) validate(name string) error {
	if !validPrefix(c.Prefix) {
		return errors.New(name + " Prefix must be non-empty and end with ':'")
	}
	if c.TTL <= 0 {
		return errors.New(name + " TTL must be > 0")
	}
	if c.MaxAttempts <= 0 {
		return errors.New(name + " MaxAttempts must be > 0")
	}
	if c.Digits < 4 || c.Digits > 10 {
		return errors.New(name + " Digits must be between 4 and 10")
	}
	return nil
}

func validPrefix(p string) bool {
	return p != "" && strings.HasSuffix(p, ":")
}
