package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const exportIndent = "    "

// document is the persisted and exported shape of a Record. The key set is
// fixed; remote stores and backup files share it.
type document struct {
	Baseline        *float64        `json:"baseline"`
	LastMileage     *float64        `json:"last_mileage"`
	TotalMiles      float64         `json:"total_miles"`
	TotalCost       float64         `json:"total_cost"`
	TotalGallons    float64         `json:"total_gallons"`
	LastTripSummary json.RawMessage `json:"last_trip_summary"`
	Log             []LogEntry      `json:"log"`
	Expenses        []Expense       `json:"expenses"`
	Earnings        []Earning       `json:"earnings"`
}

var emptyObject = json.RawMessage(`{}`)

// Encode renders a Record as indented JSON. Encoding the result of Decode
// reproduces the input of a previous Encode byte for byte.
func Encode(record Record) ([]byte, error) {
	record = normalize(record)

	summary := emptyObject
	if record.LastTripSummary != nil {
		encoded, err := json.Marshal(record.LastTripSummary)
		if err != nil {
			return nil, fmt.Errorf("encode last trip summary: %w", err)
		}
		summary = encoded
	}

	doc := document{
		Baseline:        record.Baseline,
		LastMileage:     record.LastMileage,
		TotalMiles:      record.TotalMiles,
		TotalCost:       record.TotalCost,
		TotalGallons:    record.TotalGallons,
		LastTripSummary: summary,
		Log:             record.Log,
		Expenses:        record.Expenses,
		Earnings:        record.Earnings,
	}

	return json.MarshalIndent(doc, "", exportIndent)
}

// Decode parses a Record document. Missing keys keep their defaults; fields of
// the wrong type or values violating Record invariants fail the whole decode.
func Decode(data []byte) (Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Record{}, &DecodeError{Err: errors.New("empty document")}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Record{}, decodeError(err)
	}

	record := Record{
		Baseline:     doc.Baseline,
		LastMileage:  doc.LastMileage,
		TotalMiles:   doc.TotalMiles,
		TotalCost:    doc.TotalCost,
		TotalGallons: doc.TotalGallons,
		Log:          doc.Log,
		Expenses:     doc.Expenses,
		Earnings:     doc.Earnings,
	}

	summary, err := decodeTripSummary(doc.LastTripSummary)
	if err != nil {
		return Record{}, err
	}
	record.LastTripSummary = summary

	record = normalize(record)
	if err := validate(record); err != nil {
		return Record{}, err
	}
	return record, nil
}

func decodeTripSummary(raw json.RawMessage) (*TripEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &DecodeError{Field: "last_trip_summary", Err: err}
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var entry TripEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, &DecodeError{Field: "last_trip_summary", Err: err}
	}
	return &entry, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &DecodeError{Field: typeErr.Field, Err: fmt.Errorf("expected %s, got %s", typeErr.Type, typeErr.Value)}
	}
	return &DecodeError{Err: err}
}

func validate(record Record) error {
	if record.Baseline != nil && *record.Baseline <= 0 {
		return &DecodeError{Field: "baseline", Err: ErrInvalidBaseline}
	}
	if record.Baseline != nil && record.LastMileage != nil && *record.LastMileage < *record.Baseline {
		return &DecodeError{Field: "last_mileage", Err: errors.New("below baseline")}
	}
	if record.TotalMiles < 0 || record.TotalCost < 0 || record.TotalGallons < 0 {
		return &DecodeError{Field: "totals", Err: errors.New("negative total")}
	}

	for i, entry := range record.Log {
		switch entry.Type {
		case EntryTypeTrip, EntryTypeExpense, EntryTypeIncome:
		default:
			return &DecodeError{Field: fmt.Sprintf("log[%d].type", i), Err: fmt.Errorf("unknown entry type %q", entry.Type)}
		}
	}
	for i, expense := range record.Expenses {
		if !expense.Type.Valid() {
			return &DecodeError{Field: fmt.Sprintf("expenses[%d].type", i), Err: ErrInvalidExpenseType}
		}
		if expense.Amount < 0 {
			return &DecodeError{Field: fmt.Sprintf("expenses[%d].amount", i), Err: ErrInvalidAmount}
		}
	}
	for i, earning := range record.Earnings {
		if earning.Worker < 0 || earning.Owner < 0 {
			return &DecodeError{Field: fmt.Sprintf("earnings[%d]", i), Err: ErrInvalidAmount}
		}
	}
	return nil
}

func normalize(record Record) Record {
	if record.Log == nil {
		record.Log = []LogEntry{}
	}
	if record.Expenses == nil {
		record.Expenses = []Expense{}
	}
	if record.Earnings == nil {
		record.Earnings = []Earning{}
	}
	return record
}
