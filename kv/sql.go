package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("kv: unsupported sql driver")

// Entry is the row layout of the kv_entries table.
type Entry struct {
	Key       string     `gorm:"column:entry_key;primaryKey;size:255"`
	Value     []byte     `gorm:"column:entry_value"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (Entry) TableName() string { return "kv_entries" }

// SQLOptions configures OpenSQL.
type SQLOptions struct {
	Driver             string // postgres | mysql
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string // silent | error | warn | info
}

// OpenSQL opens a gorm handle for the configured driver and applies pool limits.
func OpenSQL(o SQLOptions) (*gorm.DB, error) {
	dial, err := dialector(o.Driver, o.DSN)
	if err != nil {
		return nil, err
	}

	lvl := logger.Warn
	switch o.LogLevel {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(lvl),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if o.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	}
	if o.ConnMaxLifetimeMin > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	}

	return db.Session(&gorm.Session{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
	}), nil
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// SQL stores entries in a single relational table. Expired rows are hidden
// from reads and listed keys, and every Set prunes the namespace's expired
// rows after its upsert.
type SQL struct {
	db        *gorm.DB
	namespace string
	now       func() time.Time
}

// NewSQL returns a Store over db.
func NewSQL(db *gorm.DB, namespace string) *SQL {
	return &SQL{db: db, namespace: namespace, now: time.Now}
}

// Migrate creates or updates the kv_entries table.
func (s *SQL) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	var e Entry
	err := s.db.WithContext(ctx).
		Where("entry_key = ?", joinNamespace(s.namespace, key)).
		Take(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if e.ExpiresAt != nil && !s.now().Before(*e.ExpiresAt) {
		return nil, ErrNotFound
	}
	return e.Value, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	now := s.now()
	e := Entry{
		Key:       joinNamespace(s.namespace, key),
		Value:     value,
		UpdatedAt: now,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		e.ExpiresAt = &exp
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "expires_at", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// The write already landed; a failed prune is retried by the next Set.
	_, _ = s.Prune(ctx)
	return nil
}

// Prune deletes the namespace's rows whose expiry has passed and reports
// how many went.
func (s *SQL) Prune(ctx context.Context) (int64, error) {
	q := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now())
	if s.namespace != "" {
		q = q.Where("entry_key LIKE ? ESCAPE '!'", escapeLike(s.namespace+":")+"%")
	}
	res := q.Delete(&Entry{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).
		Where("entry_key = ?", joinNamespace(s.namespace, key)).
		Delete(&Entry{}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQL) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&Entry{}).
		Where("entry_key LIKE ? ESCAPE '!'", escapeLike(joinNamespace(s.namespace, prefix))+"%").
		Where("expires_at IS NULL OR expires_at > ?", s.now()).
		Order("entry_key").
		Pluck("entry_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	for i := range keys {
		keys[i] = stripNamespace(s.namespace, keys[i])
	}
	return keys, nil
}

// Ping checks connectivity.
func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// escapeLike escapes LIKE wildcards using '!' so the same pattern works on
// postgres and mysql.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
