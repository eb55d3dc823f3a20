package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	ledgerdomain "truck-ledger-go/internal/domain/ledger"
	syncdomain "truck-ledger-go/internal/domain/sync"
	"truck-ledger-go/internal/repository/inmemory"
	"truck-ledger-go/internal/transport/httpserver/middleware"
	"truck-ledger-go/pkg/logger"
)

type failingGateway struct {
	*inmemory.RecordsRepository
	saveErr error
}

func (g *failingGateway) Save(ctx context.Context, cred syncdomain.Credential, record ledgerdomain.Record) error {
	if g.saveErr != nil {
		return g.saveErr
	}
	return g.RecordsRepository.Save(ctx, cred, record)
}

type unreadableGateway struct {
	*inmemory.RecordsRepository
}

func (g *unreadableGateway) Load(context.Context, syncdomain.Credential) (*ledgerdomain.Record, error) {
	return nil, errors.New("permission denied")
}

func newTestRouter(t *testing.T, gateway syncdomain.Gateway) http.Handler {
	t.Helper()

	manager := syncdomain.NewManager(syncdomain.Dependencies{
		Gateway: gateway,
		Cache:   inmemory.NewReconcilerCache(),
	})
	h := New(manager, logger.Nop())

	r := chi.NewRouter()
	r.Use(middleware.NewLocalAuth("local", "driver@localhost").Middleware)
	r.Get("/record", h.GetRecord)
	r.Put("/baseline", h.SetBaseline)
	r.Post("/trips", h.ConfirmTrip)
	r.Get("/expenses", h.ListExpenses)
	r.Post("/expenses", h.AddExpense)
	r.Put("/expenses/{index}", h.EditExpense)
	r.Delete("/expenses/{index}", h.DeleteExpense)
	r.Delete("/expenses/id/{id}", h.DeleteExpenseByID)
	r.Get("/earnings", h.ListEarnings)
	r.Post("/earnings", h.AddEarning)
	r.Get("/log", h.ListLog)
	r.Get("/stats", h.Stats)
	r.Get("/backup", h.ExportBackup)
	r.Post("/backup", h.ImportBackup)
	r.Post("/reset", h.Reset)
	r.Get("/reports/text", h.TextReport)
	r.Get("/reports/income.csv", h.IncomeCSV)
	r.Get("/reports/workbook.xlsx", h.Workbook)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return out
}

type errorResponse struct {
	Error struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

func TestBaselineAndTrip(t *testing.T) {
	router := newTestRouter(t, inmemory.NewRecordsRepository())

	expectStatus(t, doJSON(t, router, http.MethodPut, "/baseline", map[string]any{"value": 1000}), http.StatusOK)

	rec := doJSON(t, router, http.MethodPut, "/baseline", map[string]any{"value": 2000})
	expectStatus(t, rec, http.StatusConflict)
	if got := decodeBody[errorResponse](t, rec).Error.Code; got != "baseline_already_set" {
		t.Fatalf("expected baseline_already_set, got %q", got)
	}

	expectStatus(t, doJSON(t, router, http.MethodPost, "/trips", map[string]any{"odometer": 900, "gallons": 10, "fuel_cost": 40}), http.StatusBadRequest)

	rec = doJSON(t, router, http.MethodPost, "/trips", map[string]any{"odometer": 1300, "gallons": 50, "fuel_cost": 200})
	expectStatus(t, rec, http.StatusCreated)
	trip := decodeBody[tripResponse](t, rec)
	if trip.Trip.Distance != 300 || trip.TotalMiles != 300 || trip.AvgMPG != 6 {
		t.Fatalf("unexpected trip response: %+v", trip)
	}
	if trip.State != syncdomain.StateClean {
		t.Fatalf("expected clean state after flush, got %s", trip.State)
	}

	rec = doJSON(t, router, http.MethodGet, "/stats", nil)
	expectStatus(t, rec, http.StatusOK)
	stats := decodeBody[statsResponse](t, rec)
	if stats.Stats.AvgCostPerMile == 0 || stats.Stats.TotalFuelCost != 200 {
		t.Fatalf("unexpected stats: %+v", stats.Stats)
	}
}

func TestTripRequiresFields(t *testing.T) {
	router := newTestRouter(t, inmemory.NewRecordsRepository())

	rec := doJSON(t, router, http.MethodPost, "/trips", map[string]any{"odometer": 1300})
	expectStatus(t, rec, http.StatusBadRequest)
	fields := decodeBody[errorResponse](t, rec).Error.Fields
	if fields["gallons"] != "required" || fields["fuel_cost"] != "required" {
		t.Fatalf("expected required gallons and fuel_cost, got %v", fields)
	}
}

func TestExpensesByIndexAndID(t *testing.T) {
	router := newTestRouter(t, inmemory.NewRecordsRepository())

	rec := doJSON(t, router, http.MethodPost, "/expenses", map[string]any{"type": "Repair", "description": "tires", "amount": 900})
	expectStatus(t, rec, http.StatusCreated)
	first := decodeBody[expenseResponse](t, rec).Expense
	expectStatus(t, doJSON(t, router, http.MethodPost, "/expenses", map[string]any{"type": "IFTA", "amount": 120}), http.StatusCreated)

	expectStatus(t, doJSON(t, router, http.MethodPost, "/expenses", map[string]any{"type": "Snacks", "amount": 5}), http.StatusBadRequest)

	rec = doJSON(t, router, http.MethodPut, "/expenses/1", map[string]any{"type": "IFTA", "description": "Q3", "amount": 150})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeBody[expenseResponse](t, rec).Expense.Amount; got != 150 {
		t.Fatalf("expected edited amount 150, got %v", got)
	}

	expectStatus(t, doJSON(t, router, http.MethodPut, "/expenses/abc", map[string]any{"type": "IFTA", "amount": 1}), http.StatusBadRequest)
	expectStatus(t, doJSON(t, router, http.MethodDelete, "/expenses/7", nil), http.StatusNotFound)

	expectStatus(t, doJSON(t, router, http.MethodDelete, "/expenses/id/"+first.ID, nil), http.StatusOK)
	expectStatus(t, doJSON(t, router, http.MethodDelete, "/expenses/id/"+first.ID, nil), http.StatusNotFound)

	rec = doJSON(t, router, http.MethodGet, "/expenses", nil)
	expectStatus(t, rec, http.StatusOK)
	list := decodeBody[expensesResponse](t, rec)
	if len(list.Items) != 1 || list.Items[0].Index != 0 || list.Total != 150 {
		t.Fatalf("unexpected expense list: %+v", list)
	}
	if len(list.Types) != len(ledgerdomain.ExpenseTypes) {
		t.Fatalf("expected %d expense types, got %d", len(ledgerdomain.ExpenseTypes), len(list.Types))
	}
}

func TestEarningsUseSnapshotNetOwner(t *testing.T) {
	router := newTestRouter(t, inmemory.NewRecordsRepository())

	expectStatus(t, doJSON(t, router, http.MethodPost, "/expenses", map[string]any{"type": "Fuel", "amount": 100}), http.StatusCreated)
	rec := doJSON(t, router, http.MethodPost, "/earnings", map[string]any{"worker": 300, "owner": 700})
	expectStatus(t, rec, http.StatusCreated)
	earning := decodeBody[earningResponse](t, rec).Earning
	if earning.NetOwner == nil || *earning.NetOwner != 600 {
		t.Fatalf("expected net owner 600, got %v", earning.NetOwner)
	}

	expectStatus(t, doJSON(t, router, http.MethodPost, "/expenses", map[string]any{"type": "Fuel", "amount": 50}), http.StatusCreated)

	rec = doJSON(t, router, http.MethodGet, "/earnings", nil)
	expectStatus(t, rec, http.StatusOK)
	list := decodeBody[earningsResponse](t, rec)
	if len(list.Items) != 1 || list.Items[0].NetOwner != 600 || list.Items[0].NetOwnerSource != "snapshot" {
		t.Fatalf("expected the stored snapshot to be kept, got %+v", list.Items)
	}
	if list.TotalOwnerEarnings != 700 || list.TotalWorkerEarnings != 300 {
		t.Fatalf("unexpected totals: %+v", list)
	}

	rec = doJSON(t, router, http.MethodGet, "/log", nil)
	expectStatus(t, rec, http.StatusOK)
	entries := decodeBody[logResponse](t, rec).Items
	if len(entries) != 3 || entries[0].Type != ledgerdomain.EntryTypeExpense || entries[1].Type != ledgerdomain.EntryTypeIncome {
		t.Fatalf("expected newest entries first, got %+v", entries)
	}
}

func TestSaveFailureIsReportedAsWarning(t *testing.T) {
	gateway := &failingGateway{RecordsRepository: inmemory.NewRecordsRepository(), saveErr: errors.New("connection refused")}
	router := newTestRouter(t, gateway)

	rec := doJSON(t, router, http.MethodPut, "/baseline", map[string]any{"value": 1000})
	expectStatus(t, rec, http.StatusOK)
	resp := decodeBody[recordResponse](t, rec)
	if resp.State != syncdomain.StateDirty {
		t.Fatalf("expected dirty state, got %s", resp.State)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].Code != syncdomain.WarningCodeSaveFailed {
		t.Fatalf("expected a save warning, got %+v", resp.Warnings)
	}

	gateway.saveErr = nil
	rec = doJSON(t, router, http.MethodGet, "/record", nil)
	expectStatus(t, rec, http.StatusOK)
	resp = decodeBody[recordResponse](t, rec)
	if resp.State != syncdomain.StateClean || len(resp.Warnings) != 0 {
		t.Fatalf("expected the pending change to be flushed, got %+v", resp.outcomeResponse)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	router := newTestRouter(t, inmemory.NewRecordsRepository())
	expectStatus(t, doJSON(t, router, http.MethodPut, "/baseline", map[string]any{"value": 1000}), http.StatusOK)

	rec := doJSON(t, router, http.MethodGet, "/backup", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, BackupFilename) {
		t.Fatalf("expected attachment %s, got %q", BackupFilename, got)
	}
	backup := rec.Body.Bytes()

	expectStatus(t, doJSON(t, router, http.MethodPost, "/reset", map[string]any{"confirm": true}), http.StatusOK)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", BackupFilename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write(backup)
	_ = form.Close()

	req := httptest.NewRequest(http.MethodPost, "/backup", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	rec = doJSON(t, router, http.MethodGet, "/backup", nil)
	expectStatus(t, rec, http.StatusOK)
	if !bytes.Equal(rec.Body.Bytes(), backup) {
		t.Fatalf("expected the imported record to export identically\nwant %s\ngot  %s", backup, rec.Body.Bytes())
	}
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	router := newTestRouter(t, inmemory.NewRecordsRepository())
	expectStatus(t, doJSON(t, router, http.MethodPut, "/baseline", map[string]any{"value": 1000}), http.StatusOK)

	req := httptest.NewRequest(http.MethodPost, "/backup", strings.NewReader(`{"total_miles": "far"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decodeBody[errorResponse](t, rec).Error.Code; got != "invalid_document" {
		t.Fatalf("expected invalid_document, got %q", got)
	}

	rec = doJSON(t, router, http.MethodGet, "/record", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"baseline":1000`) {
		t.Fatalf("expected the record to be unchanged, got %s", rec.Body.String())
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	router := newTestRouter(t, inmemory.NewRecordsRepository())
	expectStatus(t, doJSON(t, router, http.MethodPut, "/baseline", map[string]any{"value": 1000}), http.StatusOK)

	rec := doJSON(t, router, http.MethodPost, "/reset", map[string]any{"confirm": false})
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decodeBody[errorResponse](t, rec).Error.Code; got != "confirmation_required" {
		t.Fatalf("expected confirmation_required, got %q", got)
	}

	rec = doJSON(t, router, http.MethodPost, "/reset", map[string]any{"confirm": true})
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"baseline":null`) {
		t.Fatalf("expected a cleared record, got %s", rec.Body.String())
	}
}

func TestReports(t *testing.T) {
	router := newTestRouter(t, inmemory.NewRecordsRepository())
	expectStatus(t, doJSON(t, router, http.MethodPost, "/earnings", map[string]any{"worker": 100, "owner": 200}), http.StatusCreated)

	rec := doJSON(t, router, http.MethodGet, "/reports/text", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.HasPrefix(rec.Body.String(), "Real Balls Logistics Report") {
		t.Fatalf("unexpected text report: %q", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/reports/income.csv", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.HasPrefix(rec.Body.String(), "date,worker,owner,net_owner,net_owner_source") {
		t.Fatalf("unexpected csv: %q", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/reports/workbook.xlsx", nil)
	expectStatus(t, rec, http.StatusOK)
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected a zip container for the workbook")
	}
}

func TestRejectedRequestKeepsLoadWarning(t *testing.T) {
	router := newTestRouter(t, &unreadableGateway{RecordsRepository: inmemory.NewRecordsRepository()})

	rec := doJSON(t, router, http.MethodDelete, "/expenses/id/missing", nil)
	expectStatus(t, rec, http.StatusNotFound)

	var resp struct {
		Error    struct{ Code string } `json:"error"`
		Warnings []syncdomain.Warning  `json:"warnings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Error.Code != "expense_not_found" {
		t.Fatalf("expected expense_not_found, got %q", resp.Error.Code)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].Code != syncdomain.WarningCodeLoadFailed {
		t.Fatalf("expected the load warning alongside the error, got %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/record", nil)
	expectStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "load_failed") {
		t.Fatalf("load warning must only be reported once: %s", rec.Body.String())
	}
}
