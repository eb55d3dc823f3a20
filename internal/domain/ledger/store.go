package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store owns one Record and tracks whether it has unsaved mutations.
// It is not safe for concurrent use; the reconciler serializes access.
type Store struct {
	record Record
	dirty  bool
	now    func() time.Time
	newID  func() string
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		record: NewRecord(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record returns a copy of the current Record.
func (s *Store) Record() Record {
	return s.record.Clone()
}

func (s *Store) Dirty() bool {
	return s.dirty
}

func (s *Store) MarkClean() {
	s.dirty = false
}

func (s *Store) MarkDirty() {
	s.dirty = true
}

// Replace swaps in a loaded Record without marking the store dirty.
func (s *Store) Replace(record Record) {
	s.record = normalize(record.Clone())
}

func (s *Store) SetBaseline(value float64) error {
	if s.record.Baseline != nil {
		return ErrBaselineAlreadySet
	}
	if value <= 0 {
		return ErrInvalidBaseline
	}

	s.record.Baseline = floatPtr(value)
	s.record.LastMileage = floatPtr(value)
	s.dirty = true
	return nil
}

func (s *Store) ConfirmTrip(odometer, gallons, fuelCost float64) (TripEntry, error) {
	last := s.record.LastMileage
	if last == nil || odometer <= *last {
		return TripEntry{}, ErrInvalidOdometer
	}
	if gallons < 0 || fuelCost < 0 {
		return TripEntry{}, ErrInvalidAmount
	}

	distance := odometer - *last
	if distance == 0 {
		return TripEntry{}, ErrZeroDistance
	}

	entry := TripEntry{
		Timestamp:   s.now().Format(TimestampLayout),
		Type:        EntryTypeTrip,
		Distance:    distance,
		Gallons:     gallons,
		MPG:         MilesPerGallon(distance, gallons),
		TotalCost:   fuelCost,
		CostPerMile: CostPerMile(fuelCost, distance),
		Note:        tripNote,
	}

	s.record.TotalMiles += distance
	s.record.TotalCost += fuelCost
	s.record.TotalGallons += gallons
	s.record.LastMileage = floatPtr(odometer)
	s.record.Log = append(s.record.Log, entry.logEntry())
	summary := entry
	s.record.LastTripSummary = &summary
	s.dirty = true

	return entry, nil
}

func (s *Store) AddExpense(fields ExpenseFields) (Expense, error) {
	fields, err := validateExpenseFields(fields)
	if err != nil {
		return Expense{}, err
	}

	now := s.now()
	expense := Expense{
		ID:          s.newID(),
		Date:        now.Format(DateLayout),
		Type:        fields.Type,
		Description: fields.Description,
		Amount:      fields.Amount,
	}

	s.record.Expenses = append(s.record.Expenses, expense)
	s.record.Log = append(s.record.Log, LogEntry{
		Timestamp: now.Format(TimestampLayout),
		Type:      EntryTypeExpense,
		Amount:    floatPtr(expense.Amount),
		Note:      expenseNote(expense),
		ExpenseID: expense.ID,
	})
	s.dirty = true

	return expense, nil
}

func (s *Store) EditExpense(index int, fields ExpenseFields) (Expense, error) {
	if index < 0 || index >= len(s.record.Expenses) {
		return Expense{}, ErrExpenseIndexOutOfRange
	}
	return s.editAt(index, fields)
}

func (s *Store) EditExpenseByID(id string, fields ExpenseFields) (Expense, error) {
	index := s.expenseIndex(id)
	if index < 0 {
		return Expense{}, ErrExpenseNotFound
	}
	return s.editAt(index, fields)
}

func (s *Store) DeleteExpense(index int) (Expense, error) {
	if index < 0 || index >= len(s.record.Expenses) {
		return Expense{}, ErrExpenseIndexOutOfRange
	}
	return s.deleteAt(index), nil
}

func (s *Store) DeleteExpenseByID(id string) (Expense, error) {
	index := s.expenseIndex(id)
	if index < 0 {
		return Expense{}, ErrExpenseNotFound
	}
	return s.deleteAt(index), nil
}

func (s *Store) AddEarning(worker, owner float64) (Earning, error) {
	if worker < 0 || owner < 0 {
		return Earning{}, ErrInvalidAmount
	}

	now := s.now()
	net := owner - TotalExpenses(s.record.Expenses)
	earning := Earning{
		Date:     now.Format(DateLayout),
		Worker:   worker,
		Owner:    owner,
		NetOwner: floatPtr(net),
	}

	s.record.Earnings = append(s.record.Earnings, earning)
	s.record.Log = append(s.record.Log, LogEntry{
		Timestamp: now.Format(TimestampLayout),
		Type:      EntryTypeIncome,
		Amount:    floatPtr(owner),
		Note:      fmt.Sprintf("Worker: $%.2f, Owner Net: $%.2f", worker, net),
	})
	s.dirty = true

	earning.NetOwner = floatPtr(net)
	return earning, nil
}

// Export encodes the current Record in its canonical document form.
func (s *Store) Export() ([]byte, error) {
	return Encode(s.record)
}

// Import replaces the Record wholesale. A payload that fails to decode leaves
// the Record untouched.
func (s *Store) Import(data []byte) error {
	record, err := Decode(data)
	if err != nil {
		return err
	}
	s.record = record
	s.dirty = true
	return nil
}

// Reset clears the Record to defaults. Persisting the cleared Record is the
// caller's job.
func (s *Store) Reset() Record {
	s.record = NewRecord()
	s.dirty = false
	return s.record.Clone()
}

func (s *Store) editAt(index int, fields ExpenseFields) (Expense, error) {
	fields, err := validateExpenseFields(fields)
	if err != nil {
		return Expense{}, err
	}

	current := s.record.Expenses[index]
	updated := Expense{
		ID:          current.ID,
		Date:        current.Date,
		Type:        fields.Type,
		Description: fields.Description,
		Amount:      fields.Amount,
	}
	s.record.Expenses[index] = updated

	if updated.ID != "" {
		for i := range s.record.Log {
			entry := &s.record.Log[i]
			if entry.Type != EntryTypeExpense || entry.ExpenseID != updated.ID {
				continue
			}
			entry.Amount = floatPtr(updated.Amount)
			entry.Note = expenseNote(updated)
		}
	}
	s.dirty = true

	return updated, nil
}

func (s *Store) deleteAt(index int) Expense {
	removed := s.record.Expenses[index]
	s.record.Expenses = append(s.record.Expenses[:index:index], s.record.Expenses[index+1:]...)

	if removed.ID != "" {
		kept := make([]LogEntry, 0, len(s.record.Log))
		for _, entry := range s.record.Log {
			if entry.Type == EntryTypeExpense && entry.ExpenseID == removed.ID {
				continue
			}
			kept = append(kept, entry)
		}
		s.record.Log = kept
	}
	s.dirty = true

	return removed
}

func (s *Store) expenseIndex(id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i, expense := range s.record.Expenses {
		if expense.ID == id {
			return i
		}
	}
	return -1
}

func validateExpenseFields(fields ExpenseFields) (ExpenseFields, error) {
	if !fields.Type.Valid() {
		return ExpenseFields{}, ErrInvalidExpenseType
	}
	if fields.Amount < 0 {
		return ExpenseFields{}, ErrInvalidAmount
	}
	fields.Description = strings.TrimSpace(fields.Description)
	return fields, nil
}

func expenseNote(expense Expense) string {
	return fmt.Sprintf("%s: %s", expense.Type, expense.Description)
}
