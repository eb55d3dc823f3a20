package ledger

const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"

	tripNote = "Mileage + Fuel"
)

type ExpenseType string

const (
	ExpenseTypeFuel         ExpenseType = "Fuel"
	ExpenseTypeRepair       ExpenseType = "Repair"
	ExpenseTypeCertificates ExpenseType = "Certificates"
	ExpenseTypeInsurance    ExpenseType = "Insurance"
	ExpenseTypeTrailerRent  ExpenseType = "Trailer Rent"
	ExpenseTypeIFTA         ExpenseType = "IFTA"
	ExpenseTypeReeferFuel   ExpenseType = "Reefer Fuel"
	ExpenseTypeOther        ExpenseType = "Other"
)

// ExpenseTypes lists the categories in display order.
var ExpenseTypes = []ExpenseType{
	ExpenseTypeFuel,
	ExpenseTypeRepair,
	ExpenseTypeCertificates,
	ExpenseTypeInsurance,
	ExpenseTypeTrailerRent,
	ExpenseTypeIFTA,
	ExpenseTypeReeferFuel,
	ExpenseTypeOther,
}

func (t ExpenseType) Valid() bool {
	for _, known := range ExpenseTypes {
		if t == known {
			return true
		}
	}
	return false
}

type EntryType string

const (
	EntryTypeTrip    EntryType = "Trip"
	EntryTypeExpense EntryType = "Expense"
	EntryTypeIncome  EntryType = "Income"
)

// Record is the complete per-user state persisted as one document.
type Record struct {
	Baseline        *float64
	LastMileage     *float64
	TotalMiles      float64
	TotalCost       float64
	TotalGallons    float64
	LastTripSummary *TripEntry
	Log             []LogEntry
	Expenses        []Expense
	Earnings        []Earning
}

type TripEntry struct {
	Timestamp   string    `json:"timestamp"`
	Type        EntryType `json:"type"`
	Distance    float64   `json:"distance"`
	Gallons     float64   `json:"gallons"`
	MPG         float64   `json:"mpg"`
	TotalCost   float64   `json:"total_cost"`
	CostPerMile float64   `json:"cost_per_mile"`
	Note        string    `json:"note"`
}

// LogEntry holds trip fields for Trip entries and Amount for Expense and
// Income entries. ExpenseID links an Expense entry to its expense.
type LogEntry struct {
	Timestamp   string    `json:"timestamp"`
	Type        EntryType `json:"type"`
	Distance    *float64  `json:"distance,omitempty"`
	Gallons     *float64  `json:"gallons,omitempty"`
	MPG         *float64  `json:"mpg,omitempty"`
	TotalCost   *float64  `json:"total_cost,omitempty"`
	CostPerMile *float64  `json:"cost_per_mile,omitempty"`
	Amount      *float64  `json:"amount,omitempty"`
	Note        string    `json:"note"`
	ExpenseID   string    `json:"expense_id,omitempty"`
}

type Expense struct {
	ID          string      `json:"id,omitempty"`
	Date        string      `json:"date"`
	Type        ExpenseType `json:"type"`
	Description string      `json:"description"`
	Amount      float64     `json:"amount"`
}

// Earning.NetOwner is the snapshot taken when the earning was confirmed. It is
// nil only for legacy rows that never stored one.
type Earning struct {
	Date     string   `json:"date"`
	Worker   float64  `json:"worker"`
	Owner    float64  `json:"owner"`
	NetOwner *float64 `json:"net_owner,omitempty"`
}

type ExpenseFields struct {
	Type        ExpenseType
	Description string
	Amount      float64
}

// NewRecord returns the default Record with empty, non-nil collections.
func NewRecord() Record {
	return Record{
		Log:      []LogEntry{},
		Expenses: []Expense{},
		Earnings: []Earning{},
	}
}

// Clone returns a deep copy so callers never alias a Store's internals.
func (r Record) Clone() Record {
	out := r
	out.Baseline = cloneFloat(r.Baseline)
	out.LastMileage = cloneFloat(r.LastMileage)
	if r.LastTripSummary != nil {
		summary := *r.LastTripSummary
		out.LastTripSummary = &summary
	}

	out.Log = make([]LogEntry, 0, len(r.Log))
	for _, entry := range r.Log {
		out.Log = append(out.Log, entry.clone())
	}
	out.Expenses = append(make([]Expense, 0, len(r.Expenses)), r.Expenses...)
	out.Earnings = make([]Earning, 0, len(r.Earnings))
	for _, earning := range r.Earnings {
		earning.NetOwner = cloneFloat(earning.NetOwner)
		out.Earnings = append(out.Earnings, earning)
	}
	return out
}

func (e LogEntry) clone() LogEntry {
	e.Distance = cloneFloat(e.Distance)
	e.Gallons = cloneFloat(e.Gallons)
	e.MPG = cloneFloat(e.MPG)
	e.TotalCost = cloneFloat(e.TotalCost)
	e.CostPerMile = cloneFloat(e.CostPerMile)
	e.Amount = cloneFloat(e.Amount)
	return e
}

func (t TripEntry) logEntry() LogEntry {
	return LogEntry{
		Timestamp:   t.Timestamp,
		Type:        EntryTypeTrip,
		Distance:    floatPtr(t.Distance),
		Gallons:     floatPtr(t.Gallons),
		MPG:         floatPtr(t.MPG),
		TotalCost:   floatPtr(t.TotalCost),
		CostPerMile: floatPtr(t.CostPerMile),
		Note:        t.Note,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}
