package loyalty

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

const RedemptionItem = "Points Redemption"

const overdrawnMessage = "points used exceed points earned"

var (
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrLedgerUnavailable  = errors.New("sales ledger unavailable")
)

type Rates struct {
	Weekday decimal.Decimal
	Weekend decimal.Decimal
}

func DefaultRates() Rates {
	return Rates{
		Weekday: decimal.RequireFromString("0.02"),
		Weekend: decimal.RequireFromString("0.05"),
	}
}

// Engine accrues and redeems loyalty points. Balances are never stored:
// every query sums the signed point deltas of the Sales ledger.
type Engine struct {
	ledgers  store.LedgerStore
	rates    Rates
	location *time.Location
}

func NewEngine(ledgers store.LedgerStore, rates Rates, location *time.Location) *Engine {
	if rates.Weekday.IsZero() && rates.Weekend.IsZero() {
		rates = DefaultRates()
	}
	if location == nil {
		location = time.UTC
	}
	return &Engine{
		ledgers:  ledgers,
		rates:    rates,
		location: location,
	}
}

// CalculatePoints returns amount times the weekday or weekend rate,
// truncated toward zero.
func (e *Engine) CalculatePoints(amount decimal.Decimal, weekend bool) int64 {
	rate := e.rates.Weekday
	if weekend {
		rate = e.rates.Weekend
	}
	return amount.Mul(rate).Truncate(0).IntPart()
}

// IsWeekend reports whether date falls on a Saturday or Sunday in the shop
// time zone.
func (e *Engine) IsWeekend(date time.Time) bool {
	switch date.In(e.location).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// ApplyTransaction appends sale to the Sales ledger with its point delta set
// to the points earned, or zero when points are disabled for the sale.
func (e *Engine) ApplyTransaction(ctx context.Context, sale domain.SaleRecord, weekend bool, pointsEnabled bool) (domain.SaleRecord, error) {
	sale.PointsDelta = 0
	if pointsEnabled && strings.TrimSpace(sale.Customer) != "" {
		sale.PointsDelta = e.CalculatePoints(sale.Amount, weekend)
	}
	if err := e.ledgers.Append(ctx, ledger.Sales, ledger.EncodeSale(sale)); err != nil {
		return domain.SaleRecord{}, fmt.Errorf("record sale: %w", err)
	}
	return sale, nil
}

// CustomerBalance sums the point deltas of every sale matching customer.
// A ledger that cannot be read yields a zero balance marked Degraded.
func (e *Engine) CustomerBalance(ctx context.Context, customer string) domain.PointsBalance {
	balance, _ := e.history(ctx, customer)
	return balance
}

func (e *Engine) CustomerHistory(ctx context.Context, customer string) domain.PointsHistory {
	balance, entries := e.history(ctx, customer)
	if entries == nil {
		entries = []domain.PointsHistoryEntry{}
	}
	return domain.PointsHistory{
		Customer: balance.Customer,
		Entries:  entries,
		Balance:  balance,
	}
}

// Redeem spends points for customer by appending a zero-amount sale with a
// negative point delta. Redemptions beyond the current balance are refused.
func (e *Engine) Redeem(ctx context.Context, date time.Time, customer string, points int64) (domain.SaleRecord, domain.PointsBalance, error) {
	if points < 1 || strings.TrimSpace(customer) == "" {
		return domain.SaleRecord{}, domain.PointsBalance{}, store.ErrInvalidInput
	}

	balance, entries := e.history(ctx, customer)
	if balance.Degraded {
		return domain.SaleRecord{}, balance, ErrLedgerUnavailable
	}
	if matched := distinctCustomers(entries); len(matched) > 1 {
		return domain.SaleRecord{}, balance, fmt.Errorf("%w: customer %q is ambiguous, matches %s", store.ErrInvalidInput, customer, strings.Join(matched, ", "))
	}
	if balance.Matches == 0 || points > balance.Points {
		return domain.SaleRecord{}, balance, ErrInsufficientPoints
	}

	sale := domain.SaleRecord{
		Date:        date,
		Item:        RedemptionItem,
		Amount:      decimal.Zero,
		Customer:    balance.Customer,
		PointsDelta: -points,
	}
	if err := e.ledgers.Append(ctx, ledger.Sales, ledger.EncodeSale(sale)); err != nil {
		return domain.SaleRecord{}, balance, fmt.Errorf("record redemption: %w", err)
	}

	balance.Points -= points
	balance.Redeemed += points
	balance.Matches++
	markOverdrawn(&balance)
	return sale, balance, nil
}

func (e *Engine) history(ctx context.Context, customer string) (domain.PointsBalance, []domain.PointsHistoryEntry) {
	balance := domain.PointsBalance{Customer: strings.TrimSpace(customer)}
	if balance.Customer == "" {
		return balance, nil
	}

	rows, err := e.ledgers.Fetch(ctx, ledger.Sales)
	if err != nil {
		log.Printf("[loyalty] WARN: sales ledger unavailable for customer=%q: %v", balance.Customer, err)
		balance.Degraded = true
		balance.Warnings = []string{fmt.Sprintf("sales ledger unavailable: %v", err)}
		return balance, nil
	}

	var entries []domain.PointsHistoryEntry
	for _, row := range rows {
		if !MatchCustomer(row.Cell(ledger.SaleCustomer), customer) {
			continue
		}
		sale := ledger.DecodeSale(row, e.location)
		balance.Points += sale.PointsDelta
		if sale.PointsDelta > 0 {
			balance.Earned += sale.PointsDelta
		} else {
			balance.Redeemed -= sale.PointsDelta
		}
		balance.Matches++
		balance.Customer = sale.Customer
		entries = append(entries, domain.PointsHistoryEntry{Sale: sale, RunningBalance: balance.Points})
	}
	markOverdrawn(&balance)
	return balance, entries
}

// distinctCustomers lists the customer fields behind entries, compared
// case-insensitively, in first-seen order.
func distinctCustomers(entries []domain.PointsHistoryEntry) []string {
	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		key := strings.ToLower(strings.Join(strings.Fields(entry.Sale.Customer), " "))
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, entry.Sale.Customer)
	}
	return names
}

func markOverdrawn(balance *domain.PointsBalance) {
	balance.Overdrawn = balance.Points < 0
	balance.Message = ""
	if balance.Overdrawn {
		balance.Message = overdrawnMessage
	}
}

// MatchCustomer reports whether the Sales ledger customer field refers to
// query: a case-insensitive substring of the name before any "(", or a
// substring of the phone digits when query carries at least three digits.
// Shorter digit queries only match a field whose digits are exactly equal.
func MatchCustomer(field string, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" || strings.TrimSpace(field) == "" {
		return false
	}

	name := field
	if idx := strings.Index(name, "("); idx >= 0 {
		name = name[:idx]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" && strings.Contains(name, strings.ToLower(query)) {
		return true
	}

	queryDigits := digits(query)
	if len(queryDigits) < 3 {
		return queryDigits != "" && digits(field) == queryDigits
	}
	return strings.Contains(digits(field), queryDigits)
}

func digits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
