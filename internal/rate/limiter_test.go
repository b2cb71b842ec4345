package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
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
	return New(rdb, cfg), mr
}

func TestLoginThrottleBlocksAfterBudget(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxLoginAttempts: 3, LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckLogin(ctx, "ana@x.com", ""); err != nil {
			t.Fatalf("attempt %d: CheckLogin failed: %v", i, err)
		}
		if err := l.IncrementLogin(ctx, "ana@x.com", ""); err != nil {
			t.Fatalf("attempt %d: IncrementLogin failed: %v", i, err)
		}
	}
	if err := l.CheckLogin(ctx, "ana@x.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if n, err := l.LoginAttempts(ctx, "ana@x.com"); err != nil || n != 3 {
		t.Fatalf("LoginAttempts = %d, %v", n, err)
	}
	if err := l.CheckLogin(ctx, "bia@x.com", ""); err != nil {
		t.Fatalf("other email should not be limited: %v", err)
	}
}

func TestLoginThrottleWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxLoginAttempts: 1, LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	if err := l.IncrementLogin(ctx, "ana@x.com", ""); err != nil {
		t.Fatalf("IncrementLogin failed: %v", err)
	}
	if err := l.CheckLogin(ctx, "ana@x.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if err := l.CheckLogin(ctx, "ana@x.com", ""); err != nil {
		t.Fatalf("expected window to reset, got %v", err)
	}
}

func TestLoginThrottlePerIPAndReset(t *testing.T) {
	l, mr := newTestLimiter(t, Config{EnableIPThrottle: true, MaxLoginAttempts: 2, LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "a@x.com", "10.0.0.1")
	_ = l.IncrementLogin(ctx, "b@x.com", "10.0.0.1")
	if err := l.CheckLogin(ctx, "c@x.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP to be limited, got %v", err)
	}

	if err := l.ResetLogin(ctx, "a@x.com", "10.0.0.1"); err != nil {
		t.Fatalf("ResetLogin failed: %v", err)
	}
	if mr.Exists("rl:loginip:10.0.0.1") || mr.Exists("rl:login:a@x.com") {
		t.Fatal("expected counters to be cleared")
	}
}
