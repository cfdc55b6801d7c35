// Package ledger describes the append-only ledgers the shop books are kept
// in: their positional column layout, the codec between rows and domain
// records, and the keyed index used for "last row for a key" lookups.
package ledger

import (
	"slices"
	"strings"
)

const (
	Sales     = "Sales"
	Inventory = "Inventory"
	Expenses  = "Expenses"
	Balances  = "Balances"
)

// Row is one ledger row with cells addressed by position.
type Row []string

// Cell returns the trimmed cell at i, or "" when the row is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

func (r Row) Clone() Row {
	return slices.Clone(r)
}

// Schema is the fixed layout of one ledger. KeyColumn is -1 for ledgers
// that have no "latest row per key" lookup.
type Schema struct {
	Name      string
	Header    []string
	KeyColumn int
}

const (
	SaleDate = iota
	SaleItem
	SaleQuantity
	SaleAmount
	SaleCustomer
	SalePoints
	SalePaymentMode
)

const (
	InventoryDate = iota
	InventoryItem
	InventoryQuantity
	InventoryRate
	InventoryTotal
)

const (
	ExpenseDate = iota
	ExpenseDescription
	ExpenseAmount
	ExpensePaymentMode
)

const (
	BalanceMode = iota
	BalanceAmount
	BalanceRecordedAt
)

var schemas = []Schema{
	{
		Name:      Sales,
		Header:    []string{"Date", "Item", "Quantity", "Amount", "Customer", "Points", "Payment Mode"},
		KeyColumn: -1,
	},
	{
		Name:      Inventory,
		Header:    []string{"Date", "Item", "Quantity", "Purchase Rate", "Total Amount"},
		KeyColumn: InventoryItem,
	},
	{
		Name:      Expenses,
		Header:    []string{"Date", "Description", "Amount", "Payment Mode"},
		KeyColumn: -1,
	},
	{
		Name:      Balances,
		Header:    []string{"Mode", "Amount", "Recorded At"},
		KeyColumn: BalanceMode,
	},
}

// Schemas returns every known ledger in a stable order.
func Schemas() []Schema {
	out := make([]Schema, len(schemas))
	copy(out, schemas)
	return out
}

// Lookup resolves a ledger name case-insensitively.
func Lookup(name string) (Schema, bool) {
	name = strings.TrimSpace(name)
	for _, s := range schemas {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Schema{}, false
}

func (s Schema) Keyed() bool {
	return s.KeyColumn >= 0
}

// Key extracts the normalised index key of row.
func (s Schema) Key(row Row) (string, bool) {
	if !s.Keyed() {
		return "", false
	}
	key := NormalizeKey(row.Cell(s.KeyColumn))
	if key == "" {
		return "", false
	}
	return key, true
}

// IsHeader reports whether row is this ledger's header row.
func (s Schema) IsHeader(row Row) bool {
	if len(row) == 0 {
		return false
	}
	return strings.EqualFold(row.Cell(0), s.Header[0]) && (len(row) < 2 || strings.EqualFold(row.Cell(1), s.Header[1]))
}

func NormalizeKey(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}
