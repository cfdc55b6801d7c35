package profit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawledger/internal/ledger"
	"pawledger/internal/store/memory"
)

type flakyLedgers struct {
	*memory.Store
	failing map[string]bool
}

func (f flakyLedgers) Fetch(ctx context.Context, name string) ([]ledger.Row, error) {
	if f.failing[name] {
		return nil, errors.New("sheet unavailable")
	}
	return f.Store.Fetch(ctx, name)
}

func (f flakyLedgers) Latest(ctx context.Context, name string, key string) (ledger.Row, bool, error) {
	if f.failing[name] {
		return nil, false, errors.New("sheet unavailable")
	}
	return f.Store.Latest(ctx, name, key)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()
	require.NoError(t, repo.Append(ctx, ledger.Inventory, ledger.Row{"2024-01-05", "Dog Food", "10 kg", "120.00", "1200.00"}))
	require.NoError(t, repo.Append(ctx, ledger.Inventory, ledger.Row{"2024-01-01", "Dog Food", "10 kg", "100.00", "1000.00"}))
	require.NoError(t, repo.Append(ctx, ledger.Sales, ledger.Row{"2024-03-09", "Dog Food", "2 kg", "500.00", "Asha (98765)", "10", "Cash"}))
	require.NoError(t, repo.Append(ctx, ledger.Sales, ledger.Row{"2024-03-10", "Catnip", "1", "80.00", "", "0", "Online"}))
	require.NoError(t, repo.Append(ctx, ledger.Sales, ledger.Row{"2024-04-01", "Dog Food", "1 kg", "250.00", "", "0", "Cash"}))
	require.NoError(t, repo.Append(ctx, ledger.Sales, ledger.Row{"someday", "Dog Food", "1 kg", "999.00", "", "0", "Cash"}))
	require.NoError(t, repo.Append(ctx, ledger.Expenses, ledger.Row{"2024-03-09", "Electricity", "50.00", "Cash"}))
	require.NoError(t, repo.Append(ctx, ledger.Expenses, ledger.Row{"2024-05-01", "Rent", "900.00", "Online"}))
	return repo
}

func TestCalculateUsesLastAppendedRate(t *testing.T) {
	calc := NewCalculator(seed(t), time.UTC)

	report, err := calc.Calculate(context.Background(), date(2024, 3, 1), date(2024, 3, 31))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Sales)
	assert.Equal(t, "580", report.TotalSales.String())
	// 2 kg of dog food at 100: the last row wins over the later date.
	assert.Equal(t, "200", report.TotalCost.String())
	assert.Equal(t, "50", report.TotalExpense.String())
	assert.Equal(t, "380", report.GrossProfit.String())
	assert.Equal(t, "330", report.NetProfit.String())
	assert.False(t, report.Degraded)
	assert.Equal(t, "2024-03-01", report.From)
}

func TestCalculateRangeIsInclusive(t *testing.T) {
	calc := NewCalculator(seed(t), time.UTC)

	report, err := calc.Calculate(context.Background(), date(2024, 3, 9), date(2024, 3, 9))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sales)
	assert.Equal(t, "300", report.GrossProfit.String())
	assert.Equal(t, "250", report.NetProfit.String())
}

func TestCalculateRejectsReversedRange(t *testing.T) {
	calc := NewCalculator(memory.New(), time.UTC)
	_, err := calc.Calculate(context.Background(), date(2024, 3, 2), date(2024, 3, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestCalculateEmptyLedgersIsZero(t *testing.T) {
	calc := NewCalculator(memory.New(), time.UTC)
	report, err := calc.Calculate(context.Background(), date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	assert.True(t, report.NetProfit.IsZero())
	assert.False(t, report.Degraded)
}

func TestCalculateDegradesFailedLedgers(t *testing.T) {
	ledgers := flakyLedgers{Store: seed(t), failing: map[string]bool{ledger.Inventory: true, ledger.Expenses: true}}
	calc := NewCalculator(ledgers, time.UTC)

	report, err := calc.Calculate(context.Background(), date(2024, 3, 1), date(2024, 3, 31))
	require.NoError(t, err)
	assert.True(t, report.Degraded)
	assert.Len(t, report.Warnings, 2)
	assert.Equal(t, "580", report.TotalSales.String())
	assert.True(t, report.TotalCost.IsZero())
	assert.True(t, report.TotalExpense.IsZero())
	assert.Equal(t, "580", report.NetProfit.String())
}
