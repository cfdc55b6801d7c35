package profit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"pawledger/internal/domain"
	"pawledger/internal/ledger"
	"pawledger/internal/store"
)

var ErrInvalidRange = errors.New("start date is after end date")

type Calculator struct {
	ledgers  store.LedgerStore
	location *time.Location
}

func NewCalculator(ledgers store.LedgerStore, location *time.Location) *Calculator {
	if location == nil {
		location = time.UTC
	}
	return &Calculator{ledgers: ledgers, location: location}
}

// Calculate reports sales, cost of goods sold and expenses for the
// inclusive range [from, to]. The cost of a sale is its leading quantity
// times the last recorded purchase rate of the item. A ledger that cannot
// be read contributes zero and adds a warning.
func (c *Calculator) Calculate(ctx context.Context, from, to time.Time) (domain.ProfitReport, error) {
	start := day(from, c.location)
	end := day(to, c.location)
	if start.After(end) {
		return domain.ProfitReport{}, ErrInvalidRange
	}

	report := domain.ProfitReport{
		From:         ledger.FormatDate(start),
		To:           ledger.FormatDate(end),
		TotalSales:   decimal.Zero,
		TotalCost:    decimal.Zero,
		TotalExpense: decimal.Zero,
	}

	sales, salesErr := c.ledgers.Fetch(ctx, ledger.Sales)
	if salesErr != nil {
		warn(&report, "sales", salesErr)
	}

	rates := make(map[string]decimal.Decimal)
	costFailed := false
	for _, row := range sales {
		sale := ledger.DecodeSale(row, c.location)
		if !inRange(sale.Date, start, end) {
			continue
		}
		report.Sales++
		report.TotalSales = report.TotalSales.Add(sale.Amount)

		if costFailed {
			continue
		}
		rate, err := c.rate(ctx, rates, sale.Item)
		if err != nil {
			costFailed = true
			report.TotalCost = decimal.Zero
			warn(&report, "cost of goods", err)
			continue
		}
		quantity, _ := ledger.ParseQuantity(sale.Quantity)
		report.TotalCost = report.TotalCost.Add(quantity.Mul(rate))
	}

	expenses, err := c.ledgers.Fetch(ctx, ledger.Expenses)
	if err != nil {
		warn(&report, "expenses", err)
	}
	for _, row := range expenses {
		expense := ledger.DecodeExpense(row, c.location)
		if !inRange(expense.Date, start, end) {
			continue
		}
		report.TotalExpense = report.TotalExpense.Add(expense.Amount)
	}

	report.GrossProfit = report.TotalSales.Sub(report.TotalCost)
	report.NetProfit = report.GrossProfit.Sub(report.TotalExpense)
	return report, nil
}

func (c *Calculator) rate(ctx context.Context, cache map[string]decimal.Decimal, item string) (decimal.Decimal, error) {
	key := ledger.NormalizeKey(item)
	if rate, ok := cache[key]; ok {
		return rate, nil
	}
	rate := decimal.Zero
	if key != "" {
		row, ok, err := c.ledgers.Latest(ctx, ledger.Inventory, item)
		if err != nil {
			return decimal.Zero, err
		}
		if ok {
			rate = ledger.DecodeInventory(row, c.location).PurchaseRate
		}
	}
	cache[key] = rate
	return rate, nil
}

func inRange(date, start, end time.Time) bool {
	if date.IsZero() {
		return false
	}
	return !date.Before(start) && !date.After(end)
}

func day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func warn(report *domain.ProfitReport, part string, err error) {
	log.Printf("[profit] WARN: %s unavailable, counting as zero: %v", part, err)
	report.Degraded = true
	report.Warnings = append(report.Warnings, fmt.Sprintf("%s unavailable: %v", part, err))
}
