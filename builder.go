package storefront

import (
	"errors"
	"time"

	"github.com/MrEthical07/storefront/email"
	"github.com/MrEthical07/storefront/internal"
	internalaudit "github.com/MrEthical07/storefront/internal/audit"
	"github.com/MrEthical07/storefront/internal/rate"
	"github.com/MrEthical07/storefront/internal/stores"
	"github.com/MrEthical07/storefront/kv"
	"github.com/MrEthical07/storefront/order"
	"github.com/MrEthical07/storefront/password"
	"github.com/MrEthical07/storefront/session"
	"github.com/MrEthical07/storefront/verification"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config Config
	store  kv.Store
	redis  redis.UniversalClient

	mailer    Mailer
	logger    *zap.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the record store. When unset, Build wraps the redis client
// given to WithRedis.
func (b *Builder) WithStore(store kv.Store) *Builder {
	b.store = store
	return b
}

// WithRedis sets the redis client used for the login throttle and, absent
// WithStore, for all records.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithMailer sets the code delivery channel. Without one, codes are written
// to the logger.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock replaces the time source of every component. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("store or redis client required")
		}
		store = kv.NewRedis(b.redis, cfg.Store.Namespace)
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	mailer := b.mailer
	if mailer == nil {
		logger.Warn("no mailer configured, verification codes will only be logged")
		mailer = email.NewLogSender(logger)
	}

	// -------- PASSWORDS --------
	primary, err := password.New(password.Options{
		Algorithm: cfg.Password.Algorithm,
		Argon2: password.Argon2Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		},
		BcryptCost: cfg.Password.BcryptCost,
	})
	if err != nil {
		return nil, err
	}
	legacyBcrypt, err := password.NewBcrypt(0)
	if err != nil {
		return nil, err
	}
	legacyArgon2, err := password.NewArgon2(password.DefaultArgon2Config())
	if err != nil {
		return nil, err
	}
	passwords := password.NewSet(primary, legacyArgon2, legacyBcrypt, password.Digest{})
	// Unknown emails are checked against this hash so they cost as much as
	// a wrong password.
	decoy, err := internal.NewSessionToken()
	if err != nil {
		return nil, err
	}
	dummyHash, err := passwords.Hash(decoy)
	if err != nil {
		return nil, err
	}

	// -------- CODES --------
	otp, err := verification.NewManager(store, verification.Config{
		Prefix:         cfg.OTP.Prefix,
		TTL:            cfg.OTP.TTL,
		MaxAttempts:    cfg.OTP.MaxAttempts,
		Digits:         cfg.OTP.Digits,
		RetentionGrace: cfg.Session.RetentionGrace,
	})
	if err != nil {
		return nil, err
	}
	reset, err := verification.NewManager(store, verification.Config{
		Prefix:         cfg.Reset.Prefix,
		TTL:            cfg.Reset.TTL,
		MaxAttempts:    cfg.Reset.MaxAttempts,
		Digits:         cfg.Reset.Digits,
		RetentionGrace: cfg.Session.RetentionGrace,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cloneConfig(cfg),
		store:     store,
		users:     stores.NewUserStore(store),
		passwords: passwords,
		dummyHash: dummyHash,
		mailer:    mailer,
		log:       logger,
		now:       now,
		bootstrap: make(map[string]struct{}, len(cfg.Account.BootstrapAdmins)),
	}
	for _, addr := range cfg.Account.BootstrapAdmins {
		engine.bootstrap[internal.NormalizeEmail(addr)] = struct{}{}
	}

	engine.sessions = session.NewManager(store, session.Config{
		TTL:            cfg.Session.TTL,
		RetentionGrace: cfg.Session.RetentionGrace,
		Prefix:         cfg.Session.Prefix,
	}).WithClock(now)
	engine.otp = otp.WithClock(now)
	engine.reset = reset.WithClock(now)
	engine.orders = order.NewStore(store, order.Pricing{
		DeliveryFee:           cfg.Orders.DeliveryFee,
		FreeDeliveryThreshold: cfg.Orders.FreeDeliveryThreshold,
		Currency:              cfg.Orders.Currency,
	}).WithClock(now).WithLogger(logger)

	if b.redis != nil && cfg.Security.EnableLoginThrottle {
		engine.limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		})
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop: func(ev internalaudit.Event) {
			logger.Warn("audit event dropped", zap.String("event_type", ev.EventType))
		},
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.flows = engine.buildFlowDeps()

	b.built = true

	return engine, nil
}
