package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/storefront/kv"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (kv.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return kv.NewRedis(rdb, ""), mr
}

func newTestManager(t *testing.T, cfg Config) (*Manager, *miniredis.Miniredis, *fakeClock) {
	t.Helper()
	store, mr := newTestStore(t)
	cfg.RetentionGrace = time.Hour
	m, err := NewManager(store, cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m.WithClock(clock.Now)
	return m, mr, clock
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestIssueStoresFreshRecord(t *testing.T) {
	m, mr, clock := newTestManager(t, OTPConfig())
	ctx := context.Background()

	code, err := m.Issue(ctx, "ana@x.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	if !mr.Exists("otp:ana@x.com") {
		t.Fatal("expected otp:ana@x.com key")
	}

	rec, err := m.Get(ctx, "ana@x.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Attempts != 0 || rec.Code != code || rec.Email != "ana@x.com" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if want := clock.Now().Add(10 * time.Minute).UnixMilli(); rec.ExpiresAt != want {
		t.Fatalf("expiresAt = %d, want %d", rec.ExpiresAt, want)
	}
}

func TestVerifySuccessConsumesCode(t *testing.T) {
	m, mr, _ := newTestManager(t, OTPConfig())
	ctx := context.Background()

	code, err := m.Issue(ctx, "ana@x.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := m.Verify(ctx, "ana@x.com", "  "+code+"\n"); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if mr.Exists("otp:ana@x.com") {
		t.Fatal("expected code to be consumed")
	}
	if err := m.Verify(ctx, "ana@x.com", code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on reuse, got %v", err)
	}
}

func TestVerifyMismatchReportsRemaining(t *testing.T) {
	m, _, _ := newTestManager(t, OTPConfig())
	ctx := context.Background()

	code, _ := m.Issue(ctx, "ana@x.com")
	for i := 1; i <= 5; i++ {
		err := m.Verify(ctx, "ana@x.com", wrongCode(code))
		var mm *MismatchError
		if !errors.As(err, &mm) || !errors.Is(err, ErrMismatch) {
			t.Fatalf("attempt %d: expected MismatchError, got %v", i, err)
		}
		if mm.Remaining != 5-i {
			t.Fatalf("attempt %d: remaining = %d, want %d", i, mm.Remaining, 5-i)
		}
	}

	rec, err := m.Get(ctx, "ana@x.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Attempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", rec.Attempts)
	}
}

func TestVerifyExhaustedRejectsCorrectCode(t *testing.T) {
	m, mr, _ := newTestManager(t, OTPConfig())
	ctx := context.Background()

	code, _ := m.Issue(ctx, "ana@x.com")
	for i := 0; i < 5; i++ {
		_ = m.Verify(ctx, "ana@x.com", wrongCode(code))
	}
	if err := m.Verify(ctx, "ana@x.com", code); !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("expected ErrAttemptsExhausted, got %v", err)
	}
	if mr.Exists("otp:ana@x.com") {
		t.Fatal("expected exhausted code to be deleted")
	}
	if err := m.Verify(ctx, "ana@x.com", code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after eviction, got %v", err)
	}
}

func TestVerifyExpiredBeforeCompare(t *testing.T) {
	m, mr, clock := newTestManager(t, OTPConfig())
	ctx := context.Background()

	code, _ := m.Issue(ctx, "ana@x.com")
	clock.Advance(10*time.Minute + time.Millisecond)

	if err := m.Verify(ctx, "ana@x.com", code); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if mr.Exists("otp:ana@x.com") {
		t.Fatal("expected expired code to be deleted")
	}
}

func TestExhaustionCheckedBeforeExpiry(t *testing.T) {
	m, _, clock := newTestManager(t, OTPConfig())
	ctx := context.Background()

	code, _ := m.Issue(ctx, "ana@x.com")
	for i := 0; i < 5; i++ {
		_ = m.Verify(ctx, "ana@x.com", wrongCode(code))
	}
	clock.Advance(time.Hour)
	if err := m.Verify(ctx, "ana@x.com", code); !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("expected ErrAttemptsExhausted to win over expiry, got %v", err)
	}
}

func TestReissueOverwritesPreviousCode(t *testing.T) {
	m, _, _ := newTestManager(t, OTPConfig())
	ctx := context.Background()

	first, _ := m.Issue(ctx, "ana@x.com")
	_ = m.Verify(ctx, "ana@x.com", wrongCode(first))

	var second string
	for {
		second, _ = m.Issue(ctx, "ana@x.com")
		if second != first {
			break
		}
	}
	rec, _ := m.Get(ctx, "ana@x.com")
	if rec.Attempts != 0 {
		t.Fatalf("expected attempts reset on reissue, got %d", rec.Attempts)
	}
	if err := m.Verify(ctx, "ana@x.com", first); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected old code to be rejected, got %v", err)
	}
	if err := m.Verify(ctx, "ana@x.com", second); err != nil {
		t.Fatalf("expected new code to verify, got %v", err)
	}
}

func TestPurposesDoNotShareKeys(t *testing.T) {
	store, mr := newTestStore(t)
	otp, err := NewManager(store, OTPConfig())
	if err != nil {
		t.Fatalf("NewManager(otp) failed: %v", err)
	}
	reset, err := NewManager(store, ResetConfig())
	if err != nil {
		t.Fatalf("NewManager(reset) failed: %v", err)
	}
	ctx := context.Background()

	otpCode, _ := otp.Issue(ctx, "ana@x.com")
	if _, err := reset.Get(ctx, "ana@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reset manager must not see otp codes, got %v", err)
	}
	resetCode, _ := reset.Issue(ctx, "ana@x.com")
	if !mr.Exists("otp:ana@x.com") || !mr.Exists("reset:ana@x.com") {
		t.Fatal("expected both keys to exist independently")
	}
	if err := reset.Verify(ctx, "ana@x.com", resetCode); err != nil {
		t.Fatalf("reset Verify failed: %v", err)
	}
	if err := otp.Verify(ctx, "ana@x.com", otpCode); err != nil {
		t.Fatalf("otp Verify failed: %v", err)
	}

	rec := ResetConfig()
	if rec.TTL != 30*time.Minute {
		t.Fatalf("reset ttl = %v", rec.TTL)
	}
}

func TestNewManagerValidatesConfig(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := NewManager(store, Config{Prefix: "otp", TTL: time.Minute}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for prefix without colon, got %v", err)
	}
	if _, err := NewManager(store, Config{Prefix: "otp:"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for zero ttl, got %v", err)
	}
}

func TestDiscardIdempotent(t *testing.T) {
	m, _, _ := newTestManager(t, ResetConfig())
	ctx := context.Background()
	if err := m.Discard(ctx, "nobody@x.com"); err != nil {
		t.Fatalf("Discard of absent code failed: %v", err)
	}
}

func TestKeysRejectedByBackendReadAsNotFound(t *testing.T) {
	m, _, _ := newTestManager(t, OTPConfig())
	ctx := context.Background()
	for _, addr := range []string{"ana\r@x.com", "ana@x.com\n"} {
		if _, err := m.Get(ctx, addr); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get(%q): expected ErrNotFound, got %v", addr, err)
		}
		if err := m.Verify(ctx, addr, "123456"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Verify(%q): expected ErrNotFound, got %v", addr, err)
		}
		if err := m.Discard(ctx, addr); err != nil {
			t.Fatalf("Discard(%q): expected no error, got %v", addr, err)
		}
	}
}
