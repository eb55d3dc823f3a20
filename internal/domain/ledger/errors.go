package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBaseline        = errors.New("baseline must be greater than zero")
	ErrBaselineAlreadySet     = errors.New("baseline already set")
	ErrInvalidOdometer        = errors.New("odometer must be greater than the last recorded mileage")
	ErrZeroDistance           = errors.New("trip distance is zero")
	ErrInvalidAmount          = errors.New("amount must not be negative")
	ErrInvalidExpenseType     = errors.New("unknown expense type")
	ErrExpenseIndexOutOfRange = errors.New("expense index out of range")
	ErrExpenseNotFound        = errors.New("expense not found")
)

// DecodeError reports a Record payload that could not be decoded. The Record
// it was meant for is left unchanged.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode record: %v", e.Err)
	}
	return fmt.Sprintf("decode record: %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
