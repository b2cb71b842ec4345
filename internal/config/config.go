// Package config loads the storefront server settings from an optional yaml
// file, a .env file and APP_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/email"
)

var ErrInvalid = errors.New("config: invalid")

type HTTP struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	MaxConcurrent  int64         `mapstructure:"max_concurrent"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
}

type App struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	HTTP HTTP   `mapstructure:"http"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Store picks the key-value backend. "redis" uses Redis; "sql" keeps
// records in the kv_entries table of DB.
type Store struct {
	Backend   string `mapstructure:"backend"`
	Namespace string `mapstructure:"namespace"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

// SMTP is disabled when Host is empty; codes are then logged at debug level.
type SMTP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type Auth struct {
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	RevalidateRole    bool          `mapstructure:"revalidate_role"`
	OTPTTL            time.Duration `mapstructure:"otp_ttl"`
	ResetTTL          time.Duration `mapstructure:"reset_ttl"`
	MaxCodeAttempts   int           `mapstructure:"max_code_attempts"`
	BootstrapAdmins   []string      `mapstructure:"bootstrap_admins"`
	MinPasswordLength int           `mapstructure:"min_password_length"`
	PasswordAlgorithm string        `mapstructure:"password_algorithm"`
	BcryptCost        int           `mapstructure:"bcrypt_cost"`
	EmailFrom         string        `mapstructure:"email_from"`
	EmailPolicy       string        `mapstructure:"email_policy"`
	LoginThrottle     bool          `mapstructure:"login_throttle"`
	IPThrottle        bool          `mapstructure:"ip_throttle"`
	MaxLoginAttempts  int           `mapstructure:"max_login_attempts"`
	LoginCooldown     time.Duration `mapstructure:"login_cooldown"`
}

// Orders holds prices in minor currency units.
type Orders struct {
	DeliveryFee           int64  `mapstructure:"delivery_fee"`
	FreeDeliveryThreshold int64  `mapstructure:"free_delivery_threshold"`
	Currency              string `mapstructure:"currency"`
}

type Observability struct {
	Audit             bool `mapstructure:"audit"`
	AuditBuffer       int  `mapstructure:"audit_buffer"`
	Metrics           bool `mapstructure:"metrics"`
	LatencyHistograms bool `mapstructure:"latency_histograms"`
}

type Config struct {
	App           App           `mapstructure:"app"`
	Log           Log           `mapstructure:"log"`
	Store         Store         `mapstructure:"store"`
	Redis         Redis         `mapstructure:"redis"`
	DB            DB            `mapstructure:"db"`
	SMTP          SMTP          `mapstructure:"smtp"`
	Auth          Auth          `mapstructure:"auth"`
	Orders        Orders        `mapstructure:"orders"`
	Observability Observability `mapstructure:"observability"`
}

// Load reads .env into the process environment, then the yaml file at path
// (or CONFIG_PATH) when one is given, then APP_ variables. APP_AUTH_OTP_TTL
// overrides auth.otp_ttl.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	def := storefront.DefaultConfig()

	v.SetDefault("app.name", "storefront")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.read_timeout", 10*time.Second)
	v.SetDefault("app.http.write_timeout", 30*time.Second)
	v.SetDefault("app.http.idle_timeout", 60*time.Second)
	v.SetDefault("app.http.request_timeout", 10*time.Second)
	v.SetDefault("app.http.max_body_bytes", 1<<20)
	v.SetDefault("app.http.rate_limit_rps", 20.0)
	v.SetDefault("app.http.rate_limit_burst", 40)
	v.SetDefault("app.http.max_concurrent", 256)
	v.SetDefault("app.http.cors_origins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("log.compress", true)

	v.SetDefault("store.backend", "redis")
	v.SetDefault("store.namespace", "storefront")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime_min", 30)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")

	v.SetDefault("auth.session_ttl", def.Session.TTL)
	v.SetDefault("auth.revalidate_role", def.Session.RevalidateRole)
	v.SetDefault("auth.otp_ttl", def.OTP.TTL)
	v.SetDefault("auth.reset_ttl", def.Reset.TTL)
	v.SetDefault("auth.max_code_attempts", def.OTP.MaxAttempts)
	v.SetDefault("auth.bootstrap_admins", []string{})
	v.SetDefault("auth.min_password_length", def.Account.MinPasswordLength)
	v.SetDefault("auth.password_algorithm", def.Password.Algorithm)
	v.SetDefault("auth.bcrypt_cost", def.Password.BcryptCost)
	v.SetDefault("auth.email_from", def.Email.From)
	v.SetDefault("auth.email_policy", string(def.Email.FailurePolicy))
	v.SetDefault("auth.login_throttle", def.Security.EnableLoginThrottle)
	v.SetDefault("auth.ip_throttle", def.Security.EnableIPThrottle)
	v.SetDefault("auth.max_login_attempts", def.Security.MaxLoginAttempts)
	v.SetDefault("auth.login_cooldown", def.Security.LoginCooldownDuration)

	v.SetDefault("orders.delivery_fee", def.Orders.DeliveryFee)
	v.SetDefault("orders.free_delivery_threshold", def.Orders.FreeDeliveryThreshold)
	v.SetDefault("orders.currency", def.Orders.Currency)

	v.SetDefault("observability.audit", true)
	v.SetDefault("observability.audit_buffer", def.Audit.BufferSize)
	v.SetDefault("observability.metrics", true)
	v.SetDefault("observability.latency_histograms", true)
}

// Validate checks the server-level settings. Engine settings are validated
// by the storefront Builder.
func (c *Config) Validate() error {
	if c.App.HTTP.Port <= 0 || c.App.HTTP.Port > 65535 {
		return fmt.Errorf("%w: app.http.port %d", ErrInvalid, c.App.HTTP.Port)
	}
	switch c.Store.Backend {
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis.addr is required for the redis backend", ErrInvalid)
		}
	case "sql":
		if c.DB.DSN == "" {
			return fmt.Errorf("%w: db.dsn is required for the sql backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: store.backend %q", ErrInvalid, c.Store.Backend)
	}
	if _, err := email.ParsePolicy(c.Auth.EmailPolicy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Engine maps the settings onto a storefront.Config seeded with defaults.
func (c *Config) Engine() storefront.Config {
	out := storefront.DefaultConfig()

	out.Store.Namespace = c.Store.Namespace

	out.Session.TTL = c.Auth.SessionTTL
	out.Session.RevalidateRole = c.Auth.RevalidateRole
	out.OTP.TTL = c.Auth.OTPTTL
	out.OTP.MaxAttempts = c.Auth.MaxCodeAttempts
	out.Reset.TTL = c.Auth.ResetTTL
	out.Reset.MaxAttempts = c.Auth.MaxCodeAttempts

	out.Account.BootstrapAdmins = append([]string(nil), c.Auth.BootstrapAdmins...)
	out.Account.MinPasswordLength = c.Auth.MinPasswordLength

	out.Password.Algorithm = c.Auth.PasswordAlgorithm
	out.Password.BcryptCost = c.Auth.BcryptCost

	out.Email.From = c.Auth.EmailFrom
	if p, err := email.ParsePolicy(c.Auth.EmailPolicy); err == nil {
		out.Email.FailurePolicy = p
	}

	out.Orders.DeliveryFee = c.Orders.DeliveryFee
	out.Orders.FreeDeliveryThreshold = c.Orders.FreeDeliveryThreshold
	out.Orders.Currency = c.Orders.Currency

	out.Security.EnableLoginThrottle = c.Auth.LoginThrottle
	out.Security.EnableIPThrottle = c.Auth.IPThrottle
	out.Security.MaxLoginAttempts = c.Auth.MaxLoginAttempts
	out.Security.LoginCooldownDuration = c.Auth.LoginCooldown

	out.Audit.Enabled = c.Observability.Audit
	out.Audit.BufferSize = c.Observability.AuditBuffer
	out.Metrics.Enabled = c.Observability.Metrics
	out.Metrics.EnableLatencyHistograms = c.Observability.LatencyHistograms

	return out
}

// Addr is the listen address of the API server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.App.HTTP.Host, c.App.HTTP.Port)
}
