package storefront

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func collect(t *testing.T, sink *ChannelSink, n int) []AuditEvent {
	t.Helper()
	out := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestAuditEventsCarryNoSecrets(t *testing.T) {
	sink := NewChannelSink(64)
	env := newTestEnv(t, nil)
	// Rebuild with auditing on and the same backends.
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	engine, err := New().
		WithConfig(cfg).
		WithRedis(env.rdb).
		WithMailer(env.mail).
		WithClock(env.clock.Now).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	env.engine = engine

	ctx := WithClientIP(context.Background(), "203.0.113.9")
	env.signUp(t, "Ana", "ana@example.com", "segredo1")
	code := env.mail.code(t, "ana@example.com")
	sess, err := engine.Login(ctx, "ana@example.com", "segredo1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	engine.Close()

	events := collect(t, sink, 3)
	var sawLogin bool
	for _, ev := range events {
		blob := ev.EventType + ev.Error + ev.UserID + ev.Email
		for k, v := range ev.Metadata {
			blob += k + v
		}
		for _, secret := range []string{"segredo1", code, sess.Token} {
			if strings.Contains(blob, secret) {
				t.Fatalf("event %s leaks a secret", ev.EventType)
			}
		}
		if ev.EventType == auditEventLoginSuccess {
			sawLogin = true
			if ev.IP != "203.0.113.9" || ev.Role != string(RoleCliente) || !ev.Success {
				t.Fatalf("unexpected login event %+v", ev)
			}
		}
	}
	if !sawLogin {
		t.Fatal("expected a login_success event")
	}
}

func TestAuditDisabledEngineDropsNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signUp(t, "Ana", "ana@example.com", "segredo1")
	if got := env.engine.AuditDropped(); got != 0 {
		t.Fatalf("expected 0 dropped, got %d", got)
	}
}

func TestAuditDropsAreLoggedAndCountedPerEvent(t *testing.T) {
	env := newTestEnv(t, nil)
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 1
	cfg.Audit.DropIfFull = true
	cfg.Security.EnableLoginThrottle = false
	// Never drained, so the dispatcher backs up after two events.
	sink := NewChannelSink(1)
	engine, err := New().
		WithConfig(cfg).
		WithRedis(env.rdb).
		WithMailer(env.mail).
		WithClock(env.clock.Now).
		WithLogger(zap.New(core)).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	env.engine = engine

	for i := 0; i < 5; i++ {
		_, _ = engine.Login(context.Background(), "ghost@example.com", "nope1234")
	}

	byEvent := engine.AuditDroppedByEvent()
	if byEvent[auditEventLoginFailure] == 0 {
		t.Fatalf("expected login_failure drops, got %v", byEvent)
	}
	dropLogs := logs.FilterMessage("audit event dropped").All()
	if uint64(len(dropLogs)) != engine.AuditDropped() {
		t.Fatalf("expected %d drop logs, got %d", engine.AuditDropped(), len(dropLogs))
	}
	if dropLogs[0].ContextMap()["event_type"] != auditEventLoginFailure {
		t.Fatalf("drop log must name the event, got %v", dropLogs[0].ContextMap())
	}

	go func() {
		for range sink.Events() {
		}
	}()
	engine.Close()
}
