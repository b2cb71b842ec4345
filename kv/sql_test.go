package kv

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// stmtRecorder is a gorm logger that keeps every traced statement.
type stmtRecorder struct {
	mu    sync.Mutex
	stmts []string
}

func (r *stmtRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }
func (r *stmtRecorder) Info(context.Context, string, ...interface{})      {}
func (r *stmtRecorder) Warn(context.Context, string, ...interface{})      {}
func (r *stmtRecorder) Error(context.Context, string, ...interface{})     {}

func (r *stmtRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.mu.Lock()
	r.stmts = append(r.stmts, sql)
	r.mu.Unlock()
}

func (r *stmtRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stmts...)
}

// newDryRunSQL builds statements against the postgres dialect without a server.
func newDryRunSQL(t *testing.T, namespace string) (*SQL, *stmtRecorder) {
	t.Helper()
	rec := &stmtRecorder{}
	db, err := gorm.Open(postgres.Open("host=127.0.0.1 user=kv dbname=kv sslmode=disable"), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 rec,
	})
	if err != nil {
		t.Fatalf("gorm.Open failed: %v", err)
	}
	s := NewSQL(db, namespace)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s, rec
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"order:":        "order:",
		"customer_x":    "customer!_x",
		"50%off":        "50!%off",
		"bang!":         "bang!!",
		"ns:order:_%!x": "ns:order:!_!%!!x",
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Fatalf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	if _, err := dialector("sqlite", "file::memory:"); !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
	if _, err := OpenSQL(SQLOptions{Driver: "oracle"}); !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver from OpenSQL, got %v", err)
	}
}

func TestDialectorKnownDrivers(t *testing.T) {
	for _, d := range []string{"postgres", "mysql"} {
		dial, err := dialector(d, "dsn")
		if err != nil {
			t.Fatalf("dialector(%s) failed: %v", d, err)
		}
		if dial.Name() != d {
			t.Fatalf("dialector(%s).Name() = %s", d, dial.Name())
		}
	}
}

func TestNamespaceHelpers(t *testing.T) {
	if got := joinNamespace("shop", "user:a"); got != "shop:user:a" {
		t.Fatalf("joinNamespace = %s", got)
	}
	if got := stripNamespace("shop", "shop:user:a"); got != "user:a" {
		t.Fatalf("stripNamespace = %s", got)
	}
	if got := joinNamespace("", "user:a"); got != "user:a" {
		t.Fatalf("joinNamespace empty = %s", got)
	}
}

func TestSQLSetPrunesExpiredRowsInNamespace(t *testing.T) {
	s, rec := newDryRunSQL(t, "shop")
	if err := s.Set(context.Background(), "session:abc", []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	stmts := rec.all()
	if len(stmts) != 2 {
		t.Fatalf("expected upsert then prune, got %q", stmts)
	}
	if !strings.HasPrefix(stmts[0], "INSERT INTO") || !strings.Contains(stmts[0], "ON CONFLICT") {
		t.Fatalf("expected upsert first, got %q", stmts[0])
	}
	prune := stmts[1]
	for _, want := range []string{`DELETE FROM "kv_entries"`, "expires_at IS NOT NULL AND expires_at <=", "2026-03-01 12:00:00", "'shop:%'"} {
		if !strings.Contains(prune, want) {
			t.Fatalf("prune statement %q missing %q", prune, want)
		}
	}
}

func TestSQLPruneWithoutNamespaceCoversTable(t *testing.T) {
	s, rec := newDryRunSQL(t, "")
	if _, err := s.Prune(context.Background()); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	stmts := rec.all()
	if len(stmts) != 1 {
		t.Fatalf("expected one statement, got %q", stmts)
	}
	if strings.Contains(stmts[0], "LIKE") {
		t.Fatalf("unscoped prune must not filter by key, got %q", stmts[0])
	}
	if !strings.Contains(stmts[0], "expires_at <=") {
		t.Fatalf("prune must filter on expiry, got %q", stmts[0])
	}
}
