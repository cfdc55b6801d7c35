package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawledger/internal/domain"
)

func TestParseQuantityLeadingToken(t *testing.T) {
	cases := map[string]string{
		"2 kg":     "2",
		"1.5kg":    "1.5",
		" 3 packs": "3",
		"10":       "10",
		"2.":       "2",
	}
	for raw, want := range cases {
		got, ok := ParseQuantity(raw)
		require.True(t, ok, raw)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%q -> %s", raw, got)
	}

	for _, raw := range []string{"", "kg", "two kg", "-"} {
		got, ok := ParseQuantity(raw)
		assert.False(t, ok, raw)
		assert.True(t, got.IsZero(), raw)
	}
}

func TestParseAmountIgnoresCurrencyNoise(t *testing.T) {
	cases := map[string]string{
		"500":         "500",
		"1,200.50":    "1200.50",
		"Rs. 500":     "500",
		"Rs.500":      "500",
		"rs.1,200.50": "1200.50",
		"Rs.1,200.50": "1200.50",
		"INR 75":      "75",
		"₹500":        "500",
		"₹ 99.99":     "99.99",
		"-250.00":     "-250",
		"total 7.5":   "7.5",
	}
	for raw, want := range cases {
		got, ok := ParseAmount(raw)
		require.True(t, ok, raw)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "%q -> %s", raw, got)
	}

	got, ok := ParseAmount("n/a")
	assert.False(t, ok)
	assert.True(t, got.IsZero())
}

func TestParsePointsCoercesToZero(t *testing.T) {
	n, ok := ParsePoints("-50")
	assert.True(t, ok)
	assert.Equal(t, int64(-50), n)

	n, ok = ParsePoints("12.0")
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	n, ok = ParsePoints("lots")
	assert.False(t, ok)
	assert.Equal(t, int64(0), n)
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-03-09", "2024/03/09", "09-03-2024", "09/03/2024", "9 Mar 2024"} {
		got, ok := ParseDate(raw, time.UTC)
		require.True(t, ok, raw)
		assert.True(t, want.Equal(got), "%q -> %s", raw, got)
	}

	_, ok := ParseDate("yesterday", time.UTC)
	assert.False(t, ok)
}

func TestSaleRoundTripAndLenientDecode(t *testing.T) {
	sale := domain.SaleRecord{
		Date:        time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		Item:        "Dog Food",
		Quantity:    "2 kg",
		Amount:      decimal.NewFromInt(500),
		Customer:    "Asha (9876543210)",
		PointsDelta: 25,
		PaymentMode: domain.ModeCash,
	}
	row := EncodeSale(sale)
	assert.Equal(t, Row{"2024-03-09", "Dog Food", "2 kg", "500.00", "Asha (9876543210)", "25", "Cash"}, row)

	decoded := DecodeSale(row, time.UTC)
	assert.True(t, decoded.Amount.Equal(sale.Amount))
	assert.Equal(t, sale.PointsDelta, decoded.PointsDelta)
	assert.True(t, decoded.Date.Equal(sale.Date))

	short := DecodeSale(Row{"bad-date", "Cat Toy", "1", "abc"}, time.UTC)
	assert.True(t, short.Date.IsZero())
	assert.True(t, short.Amount.IsZero())
	assert.Equal(t, int64(0), short.PointsDelta)
	assert.Equal(t, "", short.Customer)
}

func TestFormatCustomer(t *testing.T) {
	assert.Equal(t, "Asha Rao (98765)", FormatCustomer("  Asha   Rao ", "98765"))
	assert.Equal(t, "Asha", FormatCustomer("Asha", ""))
	assert.Equal(t, "98765", FormatCustomer("", "98765"))
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	s, ok := Lookup("inventory")
	require.True(t, ok)
	assert.Equal(t, Inventory, s.Name)

	_, ok = Lookup("Payroll")
	assert.False(t, ok)
}

func TestSchemaIsHeader(t *testing.T) {
	s, _ := Lookup(Sales)
	assert.True(t, s.IsHeader(Row{"Date", "Item", "Quantity"}))
	assert.False(t, s.IsHeader(Row{"2024-01-01", "Item"}))
}

func TestArenaLatestIsLastAppendedNotLastDated(t *testing.T) {
	s, _ := Lookup(Inventory)
	arena := NewArena(s)

	arena.Append(Row{"2024-05-01", "Dog Food", "10 kg", "120.00", "1200.00"})
	arena.Append(Row{"2024-06-01", "Cat Litter", "5", "80.00", "400.00"})
	// Older date, appended later: it still wins.
	arena.Append(Row{"2024-01-01", " dog  FOOD ", "10 kg", "100.00", "1000.00"})

	row, ok := arena.Latest("Dog Food")
	require.True(t, ok)
	assert.Equal(t, "100.00", row.Cell(InventoryRate))

	_, ok = arena.Latest("Bird Seed")
	assert.False(t, ok)
	assert.Equal(t, 3, arena.Len())
}

func TestArenaReturnsCopies(t *testing.T) {
	s, _ := Lookup(Balances)
	arena := NewArena(s)
	input := Row{"Cash", "100.00", ""}
	arena.Append(input)
	input[1] = "999.00"

	rows := arena.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "100.00", rows[0][1])

	rows[0][1] = "5.00"
	latest, ok := arena.Latest("cash")
	require.True(t, ok)
	assert.Equal(t, "100.00", latest[1])
}

func TestUnkeyedArenaHasNoLatest(t *testing.T) {
	s, _ := Lookup(Sales)
	arena := NewArena(s)
	arena.Append(Row{"2024-01-01", "Dog Food"})
	_, ok := arena.Latest("Dog Food")
	assert.False(t, ok)
}
