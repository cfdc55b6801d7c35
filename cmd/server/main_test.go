package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"pawledger/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		AuthSecret:     "0123456789abcdef0123456789abcdef",
		LedgerBackend:  config.BackendSheet,
		LedgerWorkbook: "pawledger.xlsx",
		ShopTimezone:   "UTC",
		LoginRate:      "5-M",
	}
}

func TestValidateConfigAcceptsStrongValues(t *testing.T) {
	if err := validateConfig(validConfig()); err != nil {
		t.Fatalf("expected valid config to pass, got %v", err)
	}
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"AUTH_SECRET":    func(c *config.Config) { c.AuthSecret = "short" },
		"LEDGER_BACKEND": func(c *config.Config) { c.LedgerBackend = "mongo" },
		"DATABASE_URL":   func(c *config.Config) { c.LedgerBackend = config.BackendPostgres },
		"SHOP_TIMEZONE":  func(c *config.Config) { c.ShopTimezone = "Mars/Olympus" },
		"LOGIN_RATE":     func(c *config.Config) { c.LoginRate = "lots" },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		err := validateConfig(cfg)
		if err == nil || !strings.Contains(err.Error(), name) {
			t.Fatalf("%s: expected rejection naming the variable, got %v", name, err)
		}
	}
}

func TestOpenRepositorySheetBackend(t *testing.T) {
	cfg := validConfig()
	cfg.LedgerWorkbook = filepath.Join(t.TempDir(), "books.xlsx")

	repo, closeFn, err := openRepository(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open sheet backend: %v", err)
	}
	if closeFn != nil {
		defer closeFn()
	}
	if _, err := repo.Fetch(context.Background(), "Sales"); err != nil {
		t.Fatalf("fetch from new workbook: %v", err)
	}
}
