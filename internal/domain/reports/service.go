package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"truck-ledger-go/internal/domain/ledger"
)

// Text renders the printable summary report.
func Text(record ledger.Record) string {
	var b strings.Builder

	b.WriteString("Real Balls Logistics Report\n")
	b.WriteString("=====================\n")
	fmt.Fprintf(&b, "Baseline Mileage: %s\n", mileage(record.Baseline))
	fmt.Fprintf(&b, "Last Mileage: %s\n", mileage(record.LastMileage))
	fmt.Fprintf(&b, "Total Distance: %s miles\n", fixed(record.TotalMiles))
	fmt.Fprintf(&b, "Total Fuel Used: %s gal\n", fixed(record.TotalGallons))
	fmt.Fprintf(&b, "Total Fuel Cost: $%s\n", fixed(record.TotalCost))
	if record.TotalGallons > 0 {
		fmt.Fprintf(&b, "Average MPG: %s\n", fixed(record.TotalMiles/record.TotalGallons))
	}
	if record.TotalMiles > 0 {
		fmt.Fprintf(&b, "Average Cost/Mile: $%s\n", fixed(record.TotalCost/record.TotalMiles))
	}

	b.WriteString("\nEarnings Summary:\n")
	for _, row := range IncomeRows(record) {
		fmt.Fprintf(&b, "- %s: Worker $%s, Owner $%s, Net $%s\n", row.Date, fixed(row.Worker), fixed(row.Owner), fixed(row.NetOwner))
	}

	return b.String()
}

// IncomeRows lists earnings with their net owner figure. Rows without a stored
// snapshot get a live value and are marked as such.
func IncomeRows(record ledger.Record) []IncomeRow {
	currentExpenses := ledger.TotalExpenses(record.Expenses)
	rows := make([]IncomeRow, 0, len(record.Earnings))
	for _, earning := range record.Earnings {
		source := NetOwnerSnapshot
		if earning.NetOwner == nil {
			source = NetOwnerLive
		}
		rows = append(rows, IncomeRow{
			Date:     earning.Date,
			Worker:   earning.Worker,
			Owner:    earning.Owner,
			NetOwner: ledger.NetOwner(earning, currentExpenses),
			Source:   source,
		})
	}
	return rows
}

func WriteIncomeCSV(w io.Writer, record ledger.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"date", "worker", "owner", "net_owner", "net_owner_source"}); err != nil {
		return err
	}
	for _, row := range IncomeRows(record) {
		line := []string{row.Date, fixed(row.Worker), fixed(row.Owner), fixed(row.NetOwner), string(row.Source)}
		if err := writer.Write(line); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteWorkbook writes an XLSX workbook with Summary, Trips, Expenses and
// Earnings sheets.
func WriteWorkbook(w io.Writer, record ledger.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, sheet := range []string{sheetTrips, sheetExpenses, sheetEarnings} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}

	stats := ledger.ComputeStats(record)
	summary := [][]any{
		{"Metric", "Value"},
		{"Baseline Mileage", optional(record.Baseline)},
		{"Last Mileage", optional(record.LastMileage)},
		{"Total Distance (mi)", money(stats.TotalMiles)},
		{"Total Fuel Used (gal)", money(stats.TotalGallons)},
		{"Total Fuel Cost", money(stats.TotalFuelCost)},
		{"Average MPG", money(stats.AvgMPG)},
		{"Average Cost/Mile", money(stats.AvgCostPerMile)},
		{"Total Expenses", money(stats.TotalExpenses)},
		{"Total Worker Earnings", money(stats.TotalWorkerEarnings)},
		{"Total Owner Earnings", money(stats.TotalOwnerEarnings)},
		{"Net Income", money(stats.NetIncome)},
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return err
	}

	trips := [][]any{{"Timestamp", "Distance", "Gallons", "MPG", "Fuel Cost", "Cost/Mile"}}
	for _, entry := range record.Log {
		if entry.Type != ledger.EntryTypeTrip {
			continue
		}
		trips = append(trips, []any{
			entry.Timestamp,
			money(deref(entry.Distance)),
			money(deref(entry.Gallons)),
			money(deref(entry.MPG)),
			money(deref(entry.TotalCost)),
			money(deref(entry.CostPerMile)),
		})
	}
	if err := writeRows(f, sheetTrips, trips); err != nil {
		return err
	}

	expenses := [][]any{{"Date", "Type", "Description", "Amount"}}
	for _, expense := range record.Expenses {
		expenses = append(expenses, []any{expense.Date, string(expense.Type), expense.Description, money(expense.Amount)})
	}
	if err := writeRows(f, sheetExpenses, expenses); err != nil {
		return err
	}

	earnings := [][]any{{"Date", "Worker", "Owner", "Net Owner", "Net Owner Source"}}
	for _, row := range IncomeRows(record) {
		earnings = append(earnings, []any{row.Date, money(row.Worker), money(row.Owner), money(row.NetOwner), string(row.Source)})
	}
	if err := writeRows(f, sheetEarnings, earnings); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

const (
	sheetSummary  = "Summary"
	sheetTrips    = "Trips"
	sheetExpenses = "Expenses"
	sheetEarnings = "Earnings"
)

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// fixed rounds the binary value, so 2.675 prints as 2.67.
func fixed(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func money(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

// mileage prints odometer readings as floats always keeping a fractional
// digit, 150000 as "150000.0".
func mileage(value *float64) string {
	if value == nil {
		return "None"
	}
	text := strconv.FormatFloat(*value, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}

func optional(value *float64) any {
	if value == nil {
		return ""
	}
	return *value
}

func deref(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}
