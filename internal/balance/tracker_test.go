package balance

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawledger/internal/domain"
	"pawledger/internal/ledger"
	"pawledger/internal/store/memory"
)

type unreadable struct{ *memory.Store }

func (unreadable) Latest(context.Context, string, string) (ledger.Row, bool, error) {
	return nil, false, errors.New("sheet locked")
}

func TestCanonicalMode(t *testing.T) {
	mode, err := CanonicalMode(" cash ")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeCash, mode)

	mode, err = CanonicalMode("ONLINE")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeOnline, mode)

	_, err = CanonicalMode("card")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestGetWithoutRecordsIsZero(t *testing.T) {
	tracker := NewTracker(memory.New())
	amount, err := tracker.Get(context.Background(), "cash")
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}

func TestAdjustAppendsNewSnapshot(t *testing.T) {
	repo := memory.New()
	tracker := NewTracker(repo)
	ctx := context.Background()

	_, err := tracker.Set(ctx, "Cash", decimal.NewFromInt(1000))
	require.NoError(t, err)

	next, err := tracker.Adjust(ctx, "cash", decimal.NewFromInt(500), OperationAdd)
	require.NoError(t, err)
	assert.Equal(t, "1500", next.String())

	next, err = tracker.Adjust(ctx, "cash", decimal.NewFromInt(200), OperationSubtract)
	require.NoError(t, err)
	assert.Equal(t, "1300", next.String())

	rows, err := repo.Fetch(ctx, ledger.Balances)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "1500.00", rows[1].Cell(ledger.BalanceAmount))
	assert.Equal(t, domain.ModeCash, rows[2].Cell(ledger.BalanceMode))
	assert.NotEmpty(t, rows[2].Cell(ledger.BalanceRecordedAt))

	current, err := tracker.Get(ctx, "CASH")
	require.NoError(t, err)
	assert.Equal(t, "1300", current.String())
}

func TestAdjustRejectsBadInput(t *testing.T) {
	repo := memory.New()
	tracker := NewTracker(repo)
	ctx := context.Background()

	_, err := tracker.Adjust(ctx, "cash", decimal.NewFromInt(-1), OperationAdd)
	assert.ErrorIs(t, err, ErrNegativeDelta)
	_, err = tracker.Adjust(ctx, "cash", decimal.NewFromInt(1), "multiply")
	assert.ErrorIs(t, err, ErrUnknownOperation)
	_, err = tracker.Adjust(ctx, "cheque", decimal.NewFromInt(1), OperationAdd)
	assert.ErrorIs(t, err, ErrUnknownMode)

	rows, _ := repo.Fetch(ctx, ledger.Balances)
	assert.Empty(t, rows)
}

func TestSnapshotTotalsBothModes(t *testing.T) {
	tracker := NewTracker(memory.NewSeeded())

	snapshot := tracker.Snapshot(context.Background())
	assert.Equal(t, "5000", snapshot.Cash.String())
	assert.Equal(t, "12000", snapshot.Online.String())
	assert.Equal(t, "17000", snapshot.Total.String())
	assert.False(t, snapshot.Degraded)
}

func TestSnapshotDegradesWhenUnreadable(t *testing.T) {
	tracker := NewTracker(unreadable{memory.New()})

	snapshot := tracker.Snapshot(context.Background())
	assert.True(t, snapshot.Degraded)
	assert.Len(t, snapshot.Warnings, 2)
	assert.True(t, snapshot.Total.IsZero())
}
