package config

import (
	"testing"
	"time"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LEDGER_BACKEND", "LEDGER_TIMEOUT_SECONDS", "SESSION_TTL_MINUTES", "ACCESS_TOKEN_TTL_MINUTES", "LOYALTY_WEEKDAY_RATE", "LOYALTY_WEEKEND_RATE", "SHOP_TIMEZONE", "LOGIN_RATE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.LedgerBackend != BackendSheet {
		t.Fatalf("expected sheet backend, got %q", cfg.LedgerBackend)
	}
	if cfg.LedgerTimeout() != 10*time.Second {
		t.Fatalf("expected 10s ledger timeout, got %s", cfg.LedgerTimeout())
	}
	if cfg.SessionTTL() != cfg.AccessTokenTTL() || cfg.AccessTokenTTL() != 480*time.Minute {
		t.Fatalf("expected session ttl to follow token ttl, got %s / %s", cfg.SessionTTL(), cfg.AccessTokenTTL())
	}
	if cfg.LoyaltyWeekdayRate.String() != "0.02" || cfg.LoyaltyWeekendRate.String() != "0.05" {
		t.Fatalf("unexpected loyalty rates %s / %s", cfg.LoyaltyWeekdayRate, cfg.LoyaltyWeekendRate)
	}
	if cfg.LoginRate != "5-M" {
		t.Fatalf("expected default login rate, got %q", cfg.LoginRate)
	}
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("LEDGER_TIMEOUT_SECONDS", "-3")
	t.Setenv("LOYALTY_WEEKEND_RATE", "lots")
	t.Setenv("LEDGER_BACKEND", " Postgres ")
	t.Setenv("SHOP_TIMEZONE", "Asia/Kolkata")

	cfg := Load()
	if cfg.LedgerTimeoutSeconds != 10 {
		t.Fatalf("expected fallback timeout, got %d", cfg.LedgerTimeoutSeconds)
	}
	if cfg.LoyaltyWeekendRate.String() != "0.05" {
		t.Fatalf("expected fallback weekend rate, got %s", cfg.LoyaltyWeekendRate)
	}
	if cfg.LedgerBackend != BackendPostgres {
		t.Fatalf("expected normalised backend name, got %q", cfg.LedgerBackend)
	}
	if _, err := cfg.Location(); err != nil {
		t.Fatalf("expected loadable zone: %v", err)
	}
}
