package balance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pawledger/internal/domain"
	"pawledger/internal/ledger"
	"pawledger/internal/store"
)

const (
	OperationAdd      = "add"
	OperationSubtract = "subtract"
)

var (
	ErrUnknownMode      = errors.New("unknown payment mode")
	ErrUnknownOperation = errors.New("operation must be add or subtract")
	ErrNegativeDelta    = errors.New("delta must not be negative")
)

// CanonicalMode maps user input such as "cash" or " ONLINE " onto the
// payment modes kept in the Balances ledger.
func CanonicalMode(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "cash":
		return domain.ModeCash, nil
	case "online":
		return domain.ModeOnline, nil
	default:
		return "", ErrUnknownMode
	}
}

// Tracker keeps the running cash and online balances. Every change appends
// a new snapshot; the current balance is the latest snapshot for a mode.
type Tracker struct {
	ledgers store.LedgerStore
	now     func() time.Time
}

func NewTracker(ledgers store.LedgerStore) *Tracker {
	return &Tracker{ledgers: ledgers, now: time.Now}
}

// Get returns the latest recorded balance for mode, or zero when none has
// been recorded.
func (t *Tracker) Get(ctx context.Context, mode string) (decimal.Decimal, error) {
	mode, err := CanonicalMode(mode)
	if err != nil {
		return decimal.Zero, err
	}
	row, ok, err := t.ledgers.Latest(ctx, ledger.Balances, mode)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read %s balance: %w", mode, err)
	}
	if !ok {
		return decimal.Zero, nil
	}
	return ledger.DecodeBalance(row).Amount, nil
}

func (t *Tracker) Adjust(ctx context.Context, mode string, delta decimal.Decimal, operation string) (decimal.Decimal, error) {
	mode, err := CanonicalMode(mode)
	if err != nil {
		return decimal.Zero, err
	}
	if delta.IsNegative() {
		return decimal.Zero, ErrNegativeDelta
	}

	current, err := t.Get(ctx, mode)
	if err != nil {
		return decimal.Zero, err
	}

	var next decimal.Decimal
	switch strings.ToLower(strings.TrimSpace(operation)) {
	case OperationAdd:
		next = current.Add(delta)
	case OperationSubtract:
		next = current.Sub(delta)
	default:
		return decimal.Zero, ErrUnknownOperation
	}

	if err := t.record(ctx, mode, next); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

func (t *Tracker) Set(ctx context.Context, mode string, amount decimal.Decimal) (decimal.Decimal, error) {
	mode, err := CanonicalMode(mode)
	if err != nil {
		return decimal.Zero, err
	}
	if err := t.record(ctx, mode, amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// Snapshot reads both modes. A mode that cannot be read counts as zero and
// marks the snapshot degraded.
func (t *Tracker) Snapshot(ctx context.Context) domain.BalanceSnapshot {
	snapshot := domain.BalanceSnapshot{}
	read := func(mode string) decimal.Decimal {
		amount, err := t.Get(ctx, mode)
		if err != nil {
			log.Printf("[balance] WARN: %v", err)
			snapshot.Degraded = true
			snapshot.Warnings = append(snapshot.Warnings, err.Error())
			return decimal.Zero
		}
		return amount
	}
	snapshot.Cash = read(domain.ModeCash)
	snapshot.Online = read(domain.ModeOnline)
	snapshot.Total = snapshot.Cash.Add(snapshot.Online)
	return snapshot
}

func (t *Tracker) record(ctx context.Context, mode string, amount decimal.Decimal) error {
	row := ledger.EncodeBalance(domain.BalanceRecord{
		Mode:       mode,
		Amount:     amount,
		RecordedAt: t.now().UTC(),
	})
	if err := t.ledgers.Append(ctx, ledger.Balances, row); err != nil {
		return fmt.Errorf("record %s balance: %w", mode, err)
	}
	return nil
}
