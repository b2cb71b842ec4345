package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrEthical07/storefront/email"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.HTTP.Port != 8080 || cfg.Store.Backend != "redis" {
		t.Fatalf("unexpected defaults: port=%d backend=%q", cfg.App.HTTP.Port, cfg.Store.Backend)
	}
	if cfg.Auth.OTPTTL != 10*time.Minute {
		t.Fatalf("expected otp ttl 10m, got %v", cfg.Auth.OTPTTL)
	}

	engine := cfg.Engine()
	if err := engine.Validate(); err != nil {
		t.Fatalf("engine config from defaults should validate: %v", err)
	}
	if engine.Store.Namespace != "storefront" {
		t.Fatalf("expected namespace storefront, got %q", engine.Store.Namespace)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("APP_APP_HTTP_PORT", "9090")
	t.Setenv("APP_AUTH_OTP_TTL", "5m")
	t.Setenv("APP_AUTH_BOOTSTRAP_ADMINS", "owner@shop.test,ops@shop.test")
	t.Setenv("APP_AUTH_EMAIL_POLICY", "best-effort")
	t.Setenv("APP_ORDERS_DELIVERY_FEE", "700")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.App.HTTP.Port)
	}

	engine := cfg.Engine()
	if engine.OTP.TTL != 5*time.Minute {
		t.Fatalf("expected otp ttl 5m, got %v", engine.OTP.TTL)
	}
	if len(engine.Account.BootstrapAdmins) != 2 || engine.Account.BootstrapAdmins[1] != "ops@shop.test" {
		t.Fatalf("unexpected bootstrap admins: %v", engine.Account.BootstrapAdmins)
	}
	if engine.Email.FailurePolicy != email.PolicyBestEffort {
		t.Fatalf("expected best-effort policy, got %q", engine.Email.FailurePolicy)
	}
	if engine.Orders.DeliveryFee != 700 {
		t.Fatalf("expected delivery fee 700, got %d", engine.Orders.DeliveryFee)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  http:
    port: 7070
store:
  backend: sql
  namespace: shop
db:
  driver: mysql
  dsn: user:pass@tcp(127.0.0.1:3306)/shop
auth:
  session_ttl: 48h
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Backend != "sql" || cfg.DB.Driver != "mysql" {
		t.Fatalf("unexpected store settings: %+v %+v", cfg.Store, cfg.DB)
	}
	if cfg.Addr() != "0.0.0.0:7070" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if got := cfg.Engine().Session.TTL; got != 48*time.Hour {
		t.Fatalf("expected 48h session ttl, got %v", got)
	}
}

func TestValidateRejectsBadBackend(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("APP_STORE_BACKEND", "memory")

	if _, err := Load(""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidateRequiresDSNForSQL(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("APP_STORE_BACKEND", "sql")

	if _, err := Load(""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
