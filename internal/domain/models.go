package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ModeCash   = "Cash"
	ModeOnline = "Online"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// SaleRecord is one row of the Sales ledger. PointsDelta is positive for
// earned points and negative for redeemed points.
type SaleRecord struct {
	Date        time.Time       `json:"date"`
	Item        string          `json:"item"`
	Quantity    string          `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
	Customer    string          `json:"customer"`
	PointsDelta int64           `json:"points_delta"`
	PaymentMode string          `json:"payment_mode,omitempty"`
}

type InventoryRecord struct {
	Date         time.Time       `json:"date"`
	Item         string          `json:"item"`
	Quantity     string          `json:"quantity"`
	PurchaseRate decimal.Decimal `json:"purchase_rate"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

type ExpenseRecord struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentMode string          `json:"payment_mode,omitempty"`
}

// BalanceRecord is a snapshot of one payment mode's running balance.
type BalanceRecord struct {
	Mode       string          `json:"mode"`
	Amount     decimal.Decimal `json:"amount"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type Actor struct {
	Username  string
	Role      string
	SessionID string
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	SessionID   string `json:"session_id"`
	ExpiresAt   string `json:"expires_at"`
}

type SessionUpdateRequest struct {
	SelectedLedger string `json:"selected_ledger"`
}

type SaleRequest struct {
	Date          string          `json:"date,omitempty"`
	Item          string          `json:"item"`
	Quantity      string          `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	PaymentMode   string          `json:"payment_mode"`
	PointsEnabled bool            `json:"points_enabled"`
}

type SaleResponse struct {
	Sale          SaleRecord      `json:"sale"`
	PointsEarned  int64           `json:"points_earned"`
	PointsBalance *PointsBalance  `json:"points_balance,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	Warnings      []string        `json:"warnings,omitempty"`
}

type RedeemRequest struct {
	Date     string `json:"date,omitempty"`
	Customer string `json:"customer"`
	Points   int64  `json:"points"`
}

type RedeemResponse struct {
	Sale          SaleRecord    `json:"sale"`
	PointsBalance PointsBalance `json:"points_balance"`
}

// PointsBalance is derived from the Sales ledger on every request.
// Overdrawn marks a customer whose redemptions exceed their earnings.
type PointsBalance struct {
	Customer  string   `json:"customer"`
	Points    int64    `json:"points"`
	Earned    int64    `json:"earned"`
	Redeemed  int64    `json:"redeemed"`
	Matches   int      `json:"matches"`
	Overdrawn bool     `json:"overdrawn"`
	Message   string   `json:"message,omitempty"`
	Degraded  bool     `json:"degraded"`
	Warnings  []string `json:"warnings,omitempty"`
}

type PointsHistoryEntry struct {
	Sale           SaleRecord `json:"sale"`
	RunningBalance int64      `json:"running_balance"`
}

type PointsHistory struct {
	Customer string               `json:"customer"`
	Entries  []PointsHistoryEntry `json:"entries"`
	Balance  PointsBalance        `json:"balance"`
}

type PointsQuote struct {
	Amount  decimal.Decimal `json:"amount"`
	Date    string          `json:"date"`
	Weekend bool            `json:"weekend"`
	Points  int64           `json:"points"`
}

type PurchaseRequest struct {
	Date         string          `json:"date,omitempty"`
	Item         string          `json:"item"`
	Quantity     string          `json:"quantity"`
	PurchaseRate decimal.Decimal `json:"purchase_rate"`
	PaymentMode  string          `json:"payment_mode,omitempty"`
}

type PurchaseResponse struct {
	Purchase InventoryRecord  `json:"purchase"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
}

type PurchaseRate struct {
	Item  string          `json:"item"`
	Rate  decimal.Decimal `json:"rate"`
	Found bool            `json:"found"`
}

type ExpenseRequest struct {
	Date        string          `json:"date,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentMode string          `json:"payment_mode,omitempty"`
}

type ExpenseResponse struct {
	Expense ExpenseRecord    `json:"expense"`
	Balance *decimal.Decimal `json:"balance,omitempty"`
}

type BalanceAdjustRequest struct {
	Delta     decimal.Decimal `json:"delta"`
	Operation string          `json:"operation"`
}

type BalanceSetRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ModeBalance struct {
	Mode     string          `json:"mode"`
	Amount   decimal.Decimal `json:"amount"`
	Degraded bool            `json:"degraded,omitempty"`
}

type BalanceSnapshot struct {
	Cash     decimal.Decimal `json:"cash"`
	Online   decimal.Decimal `json:"online"`
	Total    decimal.Decimal `json:"total"`
	Degraded bool            `json:"degraded"`
	Warnings []string        `json:"warnings,omitempty"`
}

// ProfitReport always carries numbers; Warnings names every sub-aggregate
// that was degraded to zero because its ledger could not be read.
type ProfitReport struct {
	From         string          `json:"from"`
	To           string          `json:"to"`
	Sales        int             `json:"sales"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	NetProfit    decimal.Decimal `json:"net_profit"`
	Degraded     bool            `json:"degraded"`
	Warnings     []string        `json:"warnings,omitempty"`
}

type LedgerView struct {
	Ledger string     `json:"ledger"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Total  int        `json:"total"`
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
