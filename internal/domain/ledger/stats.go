package ledger

func MilesPerGallon(miles, gallons float64) float64 {
	if gallons > 0 {
		return miles / gallons
	}
	return 0
}

func CostPerMile(cost, miles float64) float64 {
	if miles > 0 {
		return cost / miles
	}
	return 0
}

func TotalExpenses(expenses []Expense) float64 {
	var total float64
	for _, expense := range expenses {
		total += expense.Amount
	}
	return total
}

type CategoryTotal struct {
	Type   ExpenseType `json:"type"`
	Amount float64     `json:"amount"`
	Count  int         `json:"count"`
}

type MPGPoint struct {
	Timestamp string  `json:"timestamp"`
	MPG       float64 `json:"mpg"`
}

// LiveNetOwner is a display-only view: the owner amount of an earning minus
// the expense total as it stands now. It never replaces the stored snapshot.
type LiveNetOwner struct {
	Date             string   `json:"date"`
	Owner            float64  `json:"owner"`
	SnapshotNetOwner *float64 `json:"snapshot_net_owner"`
	LiveNetOwner     float64  `json:"live_net_owner"`
}

type Stats struct {
	TotalMiles          float64         `json:"total_miles"`
	TotalGallons        float64         `json:"total_gallons"`
	TotalFuelCost       float64         `json:"total_fuel_cost"`
	AvgMPG              float64         `json:"avg_mpg"`
	AvgCostPerMile      float64         `json:"avg_cost_per_mile"`
	TotalExpenses       float64         `json:"total_expenses"`
	ExpensesByCategory  []CategoryTotal `json:"expenses_by_category"`
	TotalWorkerEarnings float64         `json:"total_worker_earnings"`
	TotalOwnerEarnings  float64         `json:"total_owner_earnings"`
	NetIncome           float64         `json:"net_income"`
	SnapshotNetOwner    float64         `json:"snapshot_net_owner"`
	LegacyEarnings      int             `json:"legacy_earnings"`
	MPGSeries           []MPGPoint      `json:"mpg_series"`
	LiveNetOwner        []LiveNetOwner  `json:"live_net_owner"`
}

// ComputeStats derives every statistic from the Record on read.
func ComputeStats(record Record) Stats {
	expensesTotal := TotalExpenses(record.Expenses)

	stats := Stats{
		TotalMiles:         record.TotalMiles,
		TotalGallons:       record.TotalGallons,
		TotalFuelCost:      record.TotalCost,
		AvgMPG:             MilesPerGallon(record.TotalMiles, record.TotalGallons),
		AvgCostPerMile:     CostPerMile(record.TotalCost, record.TotalMiles),
		TotalExpenses:      expensesTotal,
		ExpensesByCategory: ExpensesByCategory(record.Expenses),
		MPGSeries:          make([]MPGPoint, 0),
		LiveNetOwner:       make([]LiveNetOwner, 0, len(record.Earnings)),
	}

	for _, earning := range record.Earnings {
		stats.TotalWorkerEarnings += earning.Worker
		stats.TotalOwnerEarnings += earning.Owner
		if earning.NetOwner != nil {
			stats.SnapshotNetOwner += *earning.NetOwner
		} else {
			stats.LegacyEarnings++
		}
		stats.LiveNetOwner = append(stats.LiveNetOwner, LiveNetOwner{
			Date:             earning.Date,
			Owner:            earning.Owner,
			SnapshotNetOwner: cloneFloat(earning.NetOwner),
			LiveNetOwner:     earning.Owner - expensesTotal,
		})
	}
	stats.NetIncome = stats.TotalOwnerEarnings - expensesTotal

	for _, entry := range record.Log {
		if entry.Type != EntryTypeTrip || entry.MPG == nil {
			continue
		}
		stats.MPGSeries = append(stats.MPGSeries, MPGPoint{Timestamp: entry.Timestamp, MPG: *entry.MPG})
	}

	return stats
}

// NetOwner returns the stored snapshot, or owner minus currentExpenses for
// legacy earnings that never stored one.
func NetOwner(earning Earning, currentExpenses float64) float64 {
	if earning.NetOwner != nil {
		return *earning.NetOwner
	}
	return earning.Owner - currentExpenses
}

// ExpensesByCategory aggregates amounts per category in display order and
// skips categories with no expenses.
func ExpensesByCategory(expenses []Expense) []CategoryTotal {
	totals := make(map[ExpenseType]*CategoryTotal, len(ExpenseTypes))
	for _, expense := range expenses {
		total, ok := totals[expense.Type]
		if !ok {
			total = &CategoryTotal{Type: expense.Type}
			totals[expense.Type] = total
		}
		total.Amount += expense.Amount
		total.Count++
	}

	result := make([]CategoryTotal, 0, len(totals))
	for _, expenseType := range ExpenseTypes {
		if total, ok := totals[expenseType]; ok {
			result = append(result, *total)
		}
	}
	return result
}
