package reports

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"truck-ledger-go/internal/domain/ledger"
)

func sampleRecord(t *testing.T) ledger.Record {
	t.Helper()

	clock := func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	store := ledger.NewStore(ledger.WithClock(clock))
	if err := store.SetBaseline(150000); err != nil {
		t.Fatalf("set baseline: %v", err)
	}
	if _, err := store.ConfirmTrip(150350, 20.5, 85); err != nil {
		t.Fatalf("confirm trip: %v", err)
	}
	if _, err := store.AddExpense(ledger.ExpenseFields{Type: ledger.ExpenseTypeRepair, Description: "tire", Amount: 100}); err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if _, err := store.AddEarning(200, 500); err != nil {
		t.Fatalf("add earning: %v", err)
	}

	record := store.Record()
	record.Earnings = append(record.Earnings, ledger.Earning{Date: "2025-12-01", Worker: 50, Owner: 120})
	return record
}

func TestTextReport(t *testing.T) {
	text := Text(sampleRecord(t))

	want := []string{
		"Real Balls Logistics Report\n=====================\n",
		"Baseline Mileage: 150000.0\n",
		"Last Mileage: 150350.0\n",
		"Total Distance: 350.00 miles\n",
		"Total Fuel Used: 20.50 gal\n",
		"Total Fuel Cost: $85.00\n",
		"Average MPG: 17.07\n",
		"Average Cost/Mile: $0.24\n",
		"\nEarnings Summary:\n- 2026-03-14: Worker $200.00, Owner $500.00, Net $400.00\n",
		"- 2025-12-01: Worker $50.00, Owner $120.00, Net $20.00\n",
	}
	for _, fragment := range want {
		if !strings.Contains(text, fragment) {
			t.Fatalf("report missing %q:\n%s", fragment, text)
		}
	}
}

func TestTextReportEmptyRecordSkipsAverages(t *testing.T) {
	text := Text(ledger.NewRecord())
	if !strings.Contains(text, "Baseline Mileage: None") {
		t.Fatalf("unexpected report:\n%s", text)
	}
	if strings.Contains(text, "Average") {
		t.Fatalf("averages must be omitted without data:\n%s", text)
	}
}

func TestIncomeCSVLabelsLiveRows(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteIncomeCSV(&buf, sampleRecord(t)); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and two rows, got %v", rows)
	}
	if strings.Join(rows[0], ",") != "date,worker,owner,net_owner,net_owner_source" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][3] != "400.00" || rows[1][4] != "snapshot" {
		t.Fatalf("unexpected snapshot row %v", rows[1])
	}
	if rows[2][3] != "20.00" || rows[2][4] != "live" {
		t.Fatalf("unexpected live row %v", rows[2])
	}
}

func TestWorkbookSheets(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleRecord(t)); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if strings.Join(sheets, ",") != "Summary,Trips,Expenses,Earnings" {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	trips, err := f.GetRows(sheetTrips)
	if err != nil {
		t.Fatalf("read trips: %v", err)
	}
	if len(trips) != 2 || trips[1][1] != "350" {
		t.Fatalf("unexpected trips sheet %v", trips)
	}

	expenses, err := f.GetRows(sheetExpenses)
	if err != nil {
		t.Fatalf("read expenses: %v", err)
	}
	if len(expenses) != 2 || expenses[1][1] != "Repair" || expenses[1][2] != "tire" {
		t.Fatalf("unexpected expenses sheet %v", expenses)
	}
}

func TestNumberFormatting(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{value: 2.675, want: "2.67"},
		{value: 1.005, want: "1.00"},
		{value: 17.5, want: "17.50"},
		{value: -3.456, want: "-3.46"},
	}
	for _, tc := range cases {
		if got := fixed(tc.value); got != tc.want {
			t.Fatalf("fixed(%v): expected %q, got %q", tc.value, tc.want, got)
		}
	}

	whole, fractional := 150000.0, 150000.5
	if got := mileage(&whole); got != "150000.0" {
		t.Fatalf("expected 150000.0, got %q", got)
	}
	if got := mileage(&fractional); got != "150000.5" {
		t.Fatalf("expected 150000.5, got %q", got)
	}
	if got := mileage(nil); got != "None" {
		t.Fatalf("expected None, got %q", got)
	}
}
