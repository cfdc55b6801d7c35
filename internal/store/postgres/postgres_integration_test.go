package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"pawledger/internal/ledger"
)

func TestLatestFollowsAppendOrder(t *testing.T) {
	databaseURL := os.Getenv("PAWLEDGER_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set PAWLEDGER_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	item := fmt.Sprintf("IT Dog Food %d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM ledger_rows WHERE ledger = $1 AND row_key = $2`, ledger.Inventory, ledger.NormalizeKey(item))
	})

	rows := []ledger.Row{
		{"2024-05-01", item, "10 kg", "120.00", "1200.00"},
		{"2024-01-01", item, "10 kg", "100.00", "1000.00"},
	}
	for _, row := range rows {
		if err := s.Append(ctx, ledger.Inventory, row); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	latest, ok, err := s.Latest(ctx, ledger.Inventory, item)
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if latest.Cell(ledger.InventoryRate) != "100.00" {
		t.Fatalf("expected last appended rate 100.00, got %v", latest)
	}

	all, err := s.Fetch(ctx, ledger.Inventory)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	seen := 0
	for _, row := range all {
		if row.Cell(ledger.InventoryItem) == item {
			seen++
		}
	}
	if seen != 2 {
		t.Fatalf("expected 2 rows for %s, got %d", item, seen)
	}
}
