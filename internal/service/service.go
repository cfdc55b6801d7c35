package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pawledger/internal/balance"
	"pawledger/internal/domain"
	"pawledger/internal/ledger"
	"pawledger/internal/loyalty"
	"pawledger/internal/profit"
	"pawledger/internal/store"
)

var ErrForbidden = errors.New("admin role required")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	Location      *time.Location
	Rates         loyalty.Rates
	LedgerTimeout time.Duration
}

type Service struct {
	repo     store.Repository
	loyalty  *loyalty.Engine
	profit   *profit.Calculator
	balances *balance.Tracker
	location *time.Location
	timeout  time.Duration
	now      func() time.Time
}

func New(repo store.Repository, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LedgerTimeout <= 0 {
		opts.LedgerTimeout = 10 * time.Second
	}

	return &Service{
		repo:     repo,
		loyalty:  loyalty.NewEngine(repo, opts.Rates, opts.Location),
		profit:   profit.NewCalculator(repo, opts.Location),
		balances: balance.NewTracker(repo),
		location: opts.Location,
		timeout:  opts.LedgerTimeout,
		now:      time.Now,
	}
}

// Sell records a sale, awards loyalty points when enabled and credits the
// payment mode balance. A sale that was appended is reported as successful
// even when the balance credit fails; the failure is returned as a warning.
func (s *Service) Sell(ctx context.Context, req domain.SaleRequest) (domain.SaleResponse, error) {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	item := strings.TrimSpace(req.Item)
	if item == "" {
		return domain.SaleResponse{}, invalid("item is required")
	}
	if !req.Amount.IsPositive() {
		return domain.SaleResponse{}, invalid("amount must be positive")
	}
	mode, err := balance.CanonicalMode(req.PaymentMode)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return domain.SaleResponse{}, err
	}
	customer := ledger.FormatCustomer(req.CustomerName, req.CustomerPhone)
	if req.PointsEnabled && customer == "" {
		return domain.SaleResponse{}, invalid("customer is required to earn points")
	}

	sale, err := s.loyalty.ApplyTransaction(ctx, domain.SaleRecord{
		Date:        date,
		Item:        item,
		Quantity:    strings.TrimSpace(req.Quantity),
		Amount:      req.Amount,
		Customer:    customer,
		PaymentMode: mode,
	}, s.loyalty.IsWeekend(date), req.PointsEnabled)
	if err != nil {
		return domain.SaleResponse{}, err
	}

	resp := domain.SaleResponse{Sale: sale, PointsEarned: sale.PointsDelta}
	resp.Balance, err = s.balances.Adjust(ctx, mode, sale.Amount, balance.OperationAdd)
	if err != nil {
		log.Printf("[service] WARN: sale recorded but %s balance not credited: %v", mode, err)
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s balance not updated: %v", mode, err))
	}
	if customer != "" {
		points := s.loyalty.CustomerBalance(ctx, customer)
		resp.PointsBalance = &points
		resp.Warnings = append(resp.Warnings, points.Warnings...)
	}

	s.logAudit(ctx, "sale", fmt.Sprintf("item=%s,amount=%s,mode=%s,points=%d", item, sale.Amount.StringFixed(2), mode, sale.PointsDelta))
	return resp, nil
}

func (s *Service) Redeem(ctx context.Context, req domain.RedeemRequest) (domain.RedeemResponse, error) {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	if strings.TrimSpace(req.Customer) == "" {
		return domain.RedeemResponse{}, invalid("customer is required")
	}
	if req.Points < 1 {
		return domain.RedeemResponse{}, invalid("points must be positive")
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return domain.RedeemResponse{}, err
	}

	sale, points, err := s.loyalty.Redeem(ctx, date, req.Customer, req.Points)
	if err != nil {
		return domain.RedeemResponse{}, err
	}

	s.logAudit(ctx, "points_redeem", fmt.Sprintf("customer=%s,points=%d", sale.Customer, req.Points))
	return domain.RedeemResponse{Sale: sale, PointsBalance: points}, nil
}

func (s *Service) Points(ctx context.Context, customer string) (domain.PointsBalance, error) {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	if strings.TrimSpace(customer) == "" {
		return domain.PointsBalance{}, invalid("customer is required")
	}
	return s.loyalty.CustomerBalance(ctx, customer), nil
}

func (s *Service) PointsHistory(ctx context.Context, customer string) (domain.PointsHistory, error) {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	if strings.TrimSpace(customer) == "" {
		return domain.PointsHistory{}, invalid("customer is required")
	}
	return s.loyalty.CustomerHistory(ctx, customer), nil
}

// QuotePoints previews the points a sale of amount on date would earn.
func (s *Service) QuotePoints(amount decimal.Decimal, rawDate string) (domain.PointsQuote, error) {
	if amount.IsNegative() {
		return domain.PointsQuote{}, invalid("amount must not be negative")
	}
	date, err := s.parseDate(rawDate)
	if err != nil {
		return domain.PointsQuote{}, err
	}
	weekend := s.loyalty.IsWeekend(date)
	return domain.PointsQuote{
		Amount:  amount,
		Date:    ledger.FormatDate(date),
		Weekend: weekend,
		Points:  s.loyalty.CalculatePoints(amount, weekend),
	}, nil
}

// RecordPurchase appends an inventory purchase and debits the paying mode
// when one is given.
func (s *Service) RecordPurchase(ctx context.Context, req domain.PurchaseRequest) (domain.PurchaseResponse, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.PurchaseResponse{}, err
	}
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	item := strings.Join(strings.Fields(req.Item), " ")
	if item == "" {
		return domain.PurchaseResponse{}, invalid("item is required")
	}
	quantity, ok := ledger.ParseQuantity(req.Quantity)
	if !ok || !quantity.IsPositive() {
		return domain.PurchaseResponse{}, invalid("quantity must start with a positive number")
	}
	if req.PurchaseRate.IsNegative() {
		return domain.PurchaseResponse{}, invalid("purchase rate must not be negative")
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return domain.PurchaseResponse{}, err
	}

	mode := ""
	if strings.TrimSpace(req.PaymentMode) != "" {
		if mode, err = balance.CanonicalMode(req.PaymentMode); err != nil {
			return domain.PurchaseResponse{}, err
		}
	}

	purchase := domain.InventoryRecord{
		Date:         date,
		Item:         item,
		Quantity:     strings.TrimSpace(req.Quantity),
		PurchaseRate: req.PurchaseRate,
		TotalAmount:  quantity.Mul(req.PurchaseRate),
	}
	if err := s.repo.Append(ctx, ledger.Inventory, ledger.EncodeInventory(purchase)); err != nil {
		return domain.PurchaseResponse{}, fmt.Errorf("record purchase: %w", err)
	}

	resp := domain.PurchaseResponse{Purchase: purchase}
	if mode != "" {
		next, err := s.balances.Adjust(ctx, mode, purchase.TotalAmount, balance.OperationSubtract)
		if err != nil {
			log.Printf("[service] WARN: purchase recorded but %s balance not debited: %v", mode, err)
		} else {
			resp.Balance = &next
		}
	}

	s.logAudit(ctx, "inventory_purchase", fmt.Sprintf("item=%s,qty=%s,rate=%s", item, purchase.Quantity, purchase.PurchaseRate.StringFixed(2)))
	return resp, nil
}

// PurchaseRate returns the rate of the last purchase appended for item.
func (s *Service) PurchaseRate(ctx context.Context, item string) (domain.PurchaseRate, error) {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	item = strings.TrimSpace(item)
	if item == "" {
		return domain.PurchaseRate{}, invalid("item is required")
	}
	row, ok, err := s.repo.Latest(ctx, ledger.Inventory, item)
	if err != nil {
		return domain.PurchaseRate{}, fmt.Errorf("read purchase rate: %w", err)
	}
	if !ok {
		return domain.PurchaseRate{Item: item, Rate: decimal.Zero}, nil
	}
	purchase := ledger.DecodeInventory(row, s.location)
	return domain.PurchaseRate{Item: purchase.Item, Rate: purchase.PurchaseRate, Found: true}, nil
}

func (s *Service) RecordExpense(ctx context.Context, req domain.ExpenseRequest) (domain.ExpenseResponse, error) {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return domain.ExpenseResponse{}, invalid("description is required")
	}
	if !req.Amount.IsPositive() {
		return domain.ExpenseResponse{}, invalid("amount must be positive")
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return domain.ExpenseResponse{}, err
	}

	mode := ""
	if strings.TrimSpace(req.PaymentMode) != "" {
		if mode, err = balance.CanonicalMode(req.PaymentMode); err != nil {
			return domain.ExpenseResponse{}, err
		}
	}

	expense := domain.ExpenseRecord{
		Date:        date,
		Description: description,
		Amount:      req.Amount,
		PaymentMode: mode,
	}
	if err := s.repo.Append(ctx, ledger.Expenses, ledger.EncodeExpense(expense)); err != nil {
		return domain.ExpenseResponse{}, fmt.Errorf("record expense: %w", err)
	}

	resp := domain.ExpenseResponse{Expense: expense}
	if mode != "" {
		next, err := s.balances.Adjust(ctx, mode, expense.Amount, balance.OperationSubtract)
		if err != nil {
			log.Printf("[service] WARN: expense recorded but %s balance not debited: %v", mode, err)
		} else {
			resp.Balance = &next
		}
	}

	s.logAudit(ctx, "expense", fmt.Sprintf("description=%s,amount=%s,mode=%s", description, expense.Amount.StringFixed(2), mode))
	return resp, nil
}

func (s *Service) Balances(ctx context.Context) domain.BalanceSnapshot {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()
	return s.balances.Snapshot(ctx)
}

// Balance reads one mode. An unreadable ledger gives zero marked Degraded.
func (s *Service) Balance(ctx context.Context, mode string) (domain.ModeBalance, error) {
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	mode, err := balance.CanonicalMode(mode)
	if err != nil {
		return domain.ModeBalance{}, err
	}
	amount, err := s.balances.Get(ctx, mode)
	if err != nil {
		log.Printf("[service] WARN: %v", err)
		return domain.ModeBalance{Mode: mode, Amount: decimal.Zero, Degraded: true}, nil
	}
	return domain.ModeBalance{Mode: mode, Amount: amount}, nil
}

func (s *Service) AdjustBalance(ctx context.Context, mode string, req domain.BalanceAdjustRequest) (domain.ModeBalance, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ModeBalance{}, err
	}
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	mode, err := balance.CanonicalMode(mode)
	if err != nil {
		return domain.ModeBalance{}, err
	}
	next, err := s.balances.Adjust(ctx, mode, req.Delta, req.Operation)
	if err != nil {
		return domain.ModeBalance{}, err
	}

	s.logAudit(ctx, "balance_adjust", fmt.Sprintf("mode=%s,op=%s,delta=%s", mode, req.Operation, req.Delta.StringFixed(2)))
	return domain.ModeBalance{Mode: mode, Amount: next}, nil
}

func (s *Service) SetBalance(ctx context.Context, mode string, req domain.BalanceSetRequest) (domain.ModeBalance, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ModeBalance{}, err
	}
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	mode, err := balance.CanonicalMode(mode)
	if err != nil {
		return domain.ModeBalance{}, err
	}
	amount, err := s.balances.Set(ctx, mode, req.Amount)
	if err != nil {
		return domain.ModeBalance{}, err
	}

	s.logAudit(ctx, "balance_set", fmt.Sprintf("mode=%s,amount=%s", mode, amount.StringFixed(2)))
	return domain.ModeBalance{Mode: mode, Amount: amount}, nil
}

// ProfitReport covers [from, to]. An empty from defaults to the first day of
// the current month and an empty to defaults to today.
func (s *Service) ProfitReport(ctx context.Context, from string, to string) (domain.ProfitReport, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ProfitReport{}, err
	}
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	today := s.today()
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, s.location)
	end := today
	if strings.TrimSpace(from) != "" {
		parsed, ok := ledger.ParseDate(from, s.location)
		if !ok {
			return domain.ProfitReport{}, invalid("from is not a valid date")
		}
		start = parsed
	}
	if strings.TrimSpace(to) != "" {
		parsed, ok := ledger.ParseDate(to, s.location)
		if !ok {
			return domain.ProfitReport{}, invalid("to is not a valid date")
		}
		end = parsed
	}

	return s.profit.Calculate(ctx, start, end)
}

// ViewLedger returns the last limit rows of a ledger in append order.
func (s *Service) ViewLedger(ctx context.Context, name string, limit int) (domain.LedgerView, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.LedgerView{}, err
	}
	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	schema, err := store.Schema(name)
	if err != nil {
		return domain.LedgerView{}, err
	}
	rows, err := s.repo.Fetch(ctx, schema.Name)
	if err != nil {
		return domain.LedgerView{}, fmt.Errorf("read %s: %w", schema.Name, err)
	}

	view := domain.LedgerView{
		Ledger: schema.Name,
		Header: schema.Header,
		Total:  len(rows),
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	view.Rows = make([][]string, 0, len(rows))
	for _, row := range rows {
		view.Rows = append(view.Rows, []string(row))
	}
	return view, nil
}

func (s *Service) ledgerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) today() time.Time {
	now := s.now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
}

func (s *Service) parseDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return s.today(), nil
	}
	date, ok := ledger.ParseDate(raw, s.location)
	if !ok {
		return time.Time{}, invalid("date is not valid, use YYYY-MM-DD")
	}
	return date, nil
}

func (s *Service) logAudit(ctx context.Context, action string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	log.Printf("[audit] %s by %s/%s: %s", action, actor.Username, actor.Role, detail)
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", store.ErrInvalidInput, msg)
}
