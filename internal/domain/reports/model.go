package reports

const (
	TextFilename     = "balls_logistics_report.txt"
	IncomeFilename   = "income_data.csv"
	WorkbookFilename = "balls_logistics_report.xlsx"

	ContentTypeText     = "text/plain; charset=utf-8"
	ContentTypeCSV      = "text/csv"
	ContentTypeWorkbook = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// NetOwnerSource tells whether a net owner figure was stored when the earning
// was recorded or recomputed from the current expenses.
type NetOwnerSource string

const (
	NetOwnerSnapshot NetOwnerSource = "snapshot"
	NetOwnerLive     NetOwnerSource = "live"
)

type IncomeRow struct {
	Date     string
	Worker   float64
	Owner    float64
	NetOwner float64
	Source   NetOwnerSource
}
