package store

import (
	"context"
	"errors"

	"pawledger/internal/domain"
	"pawledger/internal/ledger"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownLedger = errors.New("unknown ledger")
	ErrInvalidInput  = errors.New("invalid input")
)

// LedgerStore is the append-only backing store for the shop ledgers.
// Fetch returns rows in append order with the header row stripped; an
// error means the ledger could not be read, never that it is empty.
type LedgerStore interface {
	Fetch(ctx context.Context, name string) ([]ledger.Row, error)
	Append(ctx context.Context, name string, row ledger.Row) error
	Latest(ctx context.Context, name string, key string) (ledger.Row, bool, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

type Repository interface {
	LedgerStore
	UserStore
}

// Schema resolves name or returns ErrUnknownLedger.
func Schema(name string) (ledger.Schema, error) {
	s, ok := ledger.Lookup(name)
	if !ok {
		return ledger.Schema{}, ErrUnknownLedger
	}
	return s, nil
}
