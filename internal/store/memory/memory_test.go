package memory

import (
	"context"
	"errors"
	"testing"

	"pawledger/internal/domain"
	"pawledger/internal/ledger"
	"pawledger/internal/store"
)

func TestAppendAndFetchKeepsOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	rows := []ledger.Row{
		{"2024-01-01", "Rent", "5000.00", "Online"},
		{"2024-01-02", "Electricity", "800.00", "Cash"},
	}
	for _, row := range rows {
		if err := s.Append(ctx, "expenses", row); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.Fetch(ctx, ledger.Expenses)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 || got[0].Cell(1) != "Rent" || got[1].Cell(1) != "Electricity" {
		t.Fatalf("unexpected rows %v", got)
	}
}

func TestUnknownLedgerIsRejected(t *testing.T) {
	s := New()
	_, err := s.Fetch(context.Background(), "Payroll")
	if !errors.Is(err, store.ErrUnknownLedger) {
		t.Fatalf("expected ErrUnknownLedger, got %v", err)
	}
	if err := s.Append(context.Background(), "Payroll", ledger.Row{"x"}); !errors.Is(err, store.ErrUnknownLedger) {
		t.Fatalf("expected ErrUnknownLedger on append, got %v", err)
	}
}

func TestLatestUsesKeyedIndex(t *testing.T) {
	s := New()
	ctx := context.Background()

	_ = s.Append(ctx, ledger.Balances, ledger.Row{"Cash", "1000.00", ""})
	_ = s.Append(ctx, ledger.Balances, ledger.Row{"Online", "300.00", ""})
	_ = s.Append(ctx, ledger.Balances, ledger.Row{"Cash", "1500.00", ""})

	row, ok, err := s.Latest(ctx, ledger.Balances, "cash")
	if err != nil || !ok {
		t.Fatalf("expected cash balance, ok=%v err=%v", ok, err)
	}
	if row.Cell(ledger.BalanceAmount) != "1500.00" {
		t.Fatalf("expected last cash row, got %v", row)
	}

	if _, _, err := s.Latest(ctx, ledger.Sales, "anyone"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unkeyed ledger, got %v", err)
	}
}

func TestFetchReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.Append(ctx, ledger.Sales, ledger.Row{"2024-01-01", "Dog Food", "1", "100.00", "Asha", "2", "Cash"})

	rows, _ := s.Fetch(ctx, ledger.Sales)
	rows[0][1] = "tampered"

	again, _ := s.Fetch(ctx, ledger.Sales)
	if again[0].Cell(1) != "Dog Food" {
		t.Fatalf("store state leaked through Fetch: %v", again[0])
	}
}

func TestUserLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateUser(ctx, domain.UserAccount{Username: "Meera", Password: "x", Role: domain.RoleCashier, Active: true}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.CreateUser(ctx, domain.UserAccount{Username: "meera", Password: "y"}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected duplicate to be rejected, got %v", err)
	}
	if err := s.UpdateUserPassword(ctx, "meera", "hashed"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if err := s.UpdateUserPassword(ctx, "ghost", "hashed"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	found := false
	for _, u := range users {
		if u.Username == "meera" {
			found = true
			if u.Password != "hashed" {
				t.Fatalf("expected updated password, got %q", u.Password)
			}
		}
	}
	if !found {
		t.Fatalf("expected meera in %v", users)
	}
}

func TestNewSeededHasOpeningBalances(t *testing.T) {
	s := NewSeeded()
	row, ok, err := s.Latest(context.Background(), ledger.Balances, domain.ModeOnline)
	if err != nil || !ok {
		t.Fatalf("expected seeded online balance, ok=%v err=%v", ok, err)
	}
	if row.Cell(ledger.BalanceAmount) != "12000.00" {
		t.Fatalf("unexpected seeded balance %v", row)
	}
}
