package ledger

import (
	"strconv"
	"strings"
	"time"

	"pawledger/internal/domain"
)

// The decoders never fail: a malformed cell degrades to its zero value so a
// single bad row cannot hide the rest of a ledger.

func EncodeSale(r domain.SaleRecord) Row {
	return Row{
		FormatDate(r.Date),
		r.Item,
		r.Quantity,
		FormatAmount(r.Amount),
		r.Customer,
		strconv.FormatInt(r.PointsDelta, 10),
		r.PaymentMode,
	}
}

func DecodeSale(row Row, loc *time.Location) domain.SaleRecord {
	date, _ := ParseDate(row.Cell(SaleDate), loc)
	amount, _ := ParseAmount(row.Cell(SaleAmount))
	points, _ := ParsePoints(row.Cell(SalePoints))
	return domain.SaleRecord{
		Date:        date,
		Item:        row.Cell(SaleItem),
		Quantity:    row.Cell(SaleQuantity),
		Amount:      amount,
		Customer:    row.Cell(SaleCustomer),
		PointsDelta: points,
		PaymentMode: row.Cell(SalePaymentMode),
	}
}

func EncodeInventory(r domain.InventoryRecord) Row {
	return Row{
		FormatDate(r.Date),
		r.Item,
		r.Quantity,
		FormatAmount(r.PurchaseRate),
		FormatAmount(r.TotalAmount),
	}
}

func DecodeInventory(row Row, loc *time.Location) domain.InventoryRecord {
	date, _ := ParseDate(row.Cell(InventoryDate), loc)
	rate, _ := ParseAmount(row.Cell(InventoryRate))
	total, _ := ParseAmount(row.Cell(InventoryTotal))
	return domain.InventoryRecord{
		Date:         date,
		Item:         row.Cell(InventoryItem),
		Quantity:     row.Cell(InventoryQuantity),
		PurchaseRate: rate,
		TotalAmount:  total,
	}
}

func EncodeExpense(r domain.ExpenseRecord) Row {
	return Row{
		FormatDate(r.Date),
		r.Description,
		FormatAmount(r.Amount),
		r.PaymentMode,
	}
}

func DecodeExpense(row Row, loc *time.Location) domain.ExpenseRecord {
	date, _ := ParseDate(row.Cell(ExpenseDate), loc)
	amount, _ := ParseAmount(row.Cell(ExpenseAmount))
	return domain.ExpenseRecord{
		Date:        date,
		Description: row.Cell(ExpenseDescription),
		Amount:      amount,
		PaymentMode: row.Cell(ExpensePaymentMode),
	}
}

func EncodeBalance(r domain.BalanceRecord) Row {
	recordedAt := ""
	if !r.RecordedAt.IsZero() {
		recordedAt = r.RecordedAt.UTC().Format(time.RFC3339)
	}
	return Row{
		r.Mode,
		FormatAmount(r.Amount),
		recordedAt,
	}
}

func DecodeBalance(row Row) domain.BalanceRecord {
	amount, _ := ParseAmount(row.Cell(BalanceAmount))
	recordedAt, _ := time.Parse(time.RFC3339, row.Cell(BalanceRecordedAt))
	return domain.BalanceRecord{
		Mode:       row.Cell(BalanceMode),
		Amount:     amount,
		RecordedAt: recordedAt,
	}
}

// FormatCustomer renders the customer cell as "Name (phone)", or whichever
// part is present.
func FormatCustomer(name string, phone string) string {
	name = strings.Join(strings.Fields(name), " ")
	phone = strings.TrimSpace(phone)
	switch {
	case name != "" && phone != "":
		return name + " (" + phone + ")"
	case name != "":
		return name
	default:
		return phone
	}
}
