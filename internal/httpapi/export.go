package httpapi

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"pawledger/internal/domain"
)

const profitSheet = "Profit"

func profitReportLines(report domain.ProfitReport) [][]string {
	rows := [][]string{
		{"section", "key", "value"},
		{"range", "from", report.From},
		{"range", "to", report.To},
		{"summary", "sales", fmt.Sprintf("%d", report.Sales)},
		{"summary", "total_sales", report.TotalSales.StringFixed(2)},
		{"summary", "total_cost", report.TotalCost.StringFixed(2)},
		{"summary", "total_expense", report.TotalExpense.StringFixed(2)},
		{"summary", "gross_profit", report.GrossProfit.StringFixed(2)},
		{"summary", "net_profit", report.NetProfit.StringFixed(2)},
	}
	for _, warning := range report.Warnings {
		rows = append(rows, []string{"warning", "degraded", warning})
	}
	return rows
}

func profitReportToCSV(report domain.ProfitReport) string {
	lines := make([]string, 0, 12)
	for _, row := range profitReportLines(report) {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = csvCell(cell)
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n") + "\n"
}

func csvCell(value string) string {
	if !strings.ContainsAny(value, ",\"\n\r") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// profitReportToXLSX renders the report as a single-sheet workbook. Money
// cells are written as numbers so spreadsheet formulas work on them.
func profitReportToXLSX(report domain.ProfitReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", profitSheet); err != nil {
		return nil, err
	}
	for i, row := range profitReportLines(report) {
		values := make([]interface{}, len(row))
		for j, cell := range row {
			values[j] = cell
		}
		if i > 0 && row[0] == "summary" {
			if n, err := strconv.ParseFloat(row[2], 64); err == nil {
				values[2] = n
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(profitSheet, cell, &values); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(profitSheet, "A", "C", 18); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

