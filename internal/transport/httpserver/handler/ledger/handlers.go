package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	ledgerdomain "truck-ledger-go/internal/domain/ledger"
	"truck-ledger-go/internal/domain/reports"
	syncdomain "truck-ledger-go/internal/domain/sync"
	"truck-ledger-go/internal/transport/httpserver/handler/common"
	"truck-ledger-go/internal/transport/httpserver/middleware"
	"truck-ledger-go/pkg/logger"
)

type Sessions interface {
	Run(ctx context.Context, sessionKey string, cred syncdomain.Credential, fn func(*ledgerdomain.Store) error) (syncdomain.Outcome, error)
	Reset(ctx context.Context, sessionKey string, cred syncdomain.Credential, confirmed bool) (syncdomain.Outcome, error)
}

type Handlers struct {
	sessions Sessions
	log      logger.Logger
}

func New(sessions Sessions, log logger.Logger) *Handlers {
	return &Handlers{sessions: sessions, log: log}
}

type outcomeResponse struct {
	State    syncdomain.State     `json:"state"`
	Warnings []syncdomain.Warning `json:"warnings,omitempty"`
}

func newOutcome(outcome syncdomain.Outcome) outcomeResponse {
	return outcomeResponse{State: outcome.State, Warnings: outcome.Warnings}
}

type recordResponse struct {
	outcomeResponse
	Loaded bool               `json:"loaded"`
	Record json.RawMessage    `json:"record"`
	Stats  ledgerdomain.Stats `json:"stats"`
}

type baselineRequest struct {
	Value *float64 `json:"value" validate:"required"`
}

type tripRequest struct {
	Odometer *float64 `json:"odometer" validate:"required"`
	Gallons  *float64 `json:"gallons" validate:"required,gte=0"`
	FuelCost *float64 `json:"fuel_cost" validate:"required,gte=0"`
}

type tripResponse struct {
	outcomeResponse
	Trip       ledgerdomain.TripEntry `json:"trip"`
	TotalMiles float64                `json:"total_miles"`
	AvgMPG     float64                `json:"avg_mpg"`
}

type earningRequest struct {
	Worker *float64 `json:"worker" validate:"required,gte=0"`
	Owner  *float64 `json:"owner" validate:"required,gte=0"`
}

type earningResponse struct {
	outcomeResponse
	Earning ledgerdomain.Earning `json:"earning"`
}

type earningsResponse struct {
	outcomeResponse
	Items               []incomeRowResponse `json:"items"`
	TotalWorkerEarnings float64             `json:"total_worker_earnings"`
	TotalOwnerEarnings  float64             `json:"total_owner_earnings"`
	TotalNetOwner       float64             `json:"total_net_owner"`
}

type incomeRowResponse struct {
	Date           string                 `json:"date"`
	Worker         float64                `json:"worker"`
	Owner          float64                `json:"owner"`
	NetOwner       float64                `json:"net_owner"`
	NetOwnerSource reports.NetOwnerSource `json:"net_owner_source"`
}

type logResponse struct {
	outcomeResponse
	Items []ledgerdomain.LogEntry `json:"items"`
}

type statsResponse struct {
	outcomeResponse
	Stats ledgerdomain.Stats `json:"stats"`
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *Handlers) GetRecord(w http.ResponseWriter, r *http.Request) {
	identity, outcome, ok := h.run(w, r, "ledger.record", nil)
	if !ok {
		return
	}
	h.writeRecord(w, r, identity, http.StatusOK, outcome)
}

func (h *Handlers) SetBaseline(w http.ResponseWriter, r *http.Request) {
	var req baselineRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}

	identity, outcome, ok := h.run(w, r, "ledger.baseline", func(store *ledgerdomain.Store) error {
		return store.SetBaseline(*req.Value)
	})
	if !ok {
		return
	}
	h.writeRecord(w, r, identity, http.StatusOK, outcome)
}

func (h *Handlers) ConfirmTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}

	var trip ledgerdomain.TripEntry
	_, outcome, ok := h.run(w, r, "ledger.trip", func(store *ledgerdomain.Store) error {
		var err error
		trip, err = store.ConfirmTrip(*req.Odometer, *req.Gallons, *req.FuelCost)
		return err
	})
	if !ok {
		return
	}

	common.WriteJSON(w, http.StatusCreated, tripResponse{
		outcomeResponse: newOutcome(outcome),
		Trip:            trip,
		TotalMiles:      outcome.Record.TotalMiles,
		AvgMPG:          ledgerdomain.MilesPerGallon(outcome.Record.TotalMiles, outcome.Record.TotalGallons),
	})
}

func (h *Handlers) ListEarnings(w http.ResponseWriter, r *http.Request) {
	_, outcome, ok := h.run(w, r, "ledger.earnings", nil)
	if !ok {
		return
	}

	rows := reports.IncomeRows(outcome.Record)
	resp := earningsResponse{
		outcomeResponse: newOutcome(outcome),
		Items:           make([]incomeRowResponse, 0, len(rows)),
	}
	for _, row := range rows {
		resp.Items = append(resp.Items, incomeRowResponse{
			Date:           row.Date,
			Worker:         row.Worker,
			Owner:          row.Owner,
			NetOwner:       row.NetOwner,
			NetOwnerSource: row.Source,
		})
		resp.TotalWorkerEarnings += row.Worker
		resp.TotalOwnerEarnings += row.Owner
		resp.TotalNetOwner += row.NetOwner
	}
	common.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handlers) AddEarning(w http.ResponseWriter, r *http.Request) {
	var req earningRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}

	var earning ledgerdomain.Earning
	_, outcome, ok := h.run(w, r, "ledger.earning", func(store *ledgerdomain.Store) error {
		var err error
		earning, err = store.AddEarning(*req.Worker, *req.Owner)
		return err
	})
	if !ok {
		return
	}
	common.WriteJSON(w, http.StatusCreated, earningResponse{outcomeResponse: newOutcome(outcome), Earning: earning})
}

// ListLog returns the activity log newest first.
func (h *Handlers) ListLog(w http.ResponseWriter, r *http.Request) {
	_, outcome, ok := h.run(w, r, "ledger.log", nil)
	if !ok {
		return
	}

	items := slices.Clone(outcome.Record.Log)
	slices.Reverse(items)
	common.WriteJSON(w, http.StatusOK, logResponse{outcomeResponse: newOutcome(outcome), Items: items})
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	_, outcome, ok := h.run(w, r, "ledger.stats", nil)
	if !ok {
		return
	}
	common.WriteJSON(w, http.StatusOK, statsResponse{
		outcomeResponse: newOutcome(outcome),
		Stats:           ledgerdomain.ComputeStats(outcome.Record),
	})
}

func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not_authenticated", "sign in required")
		return
	}

	outcome, err := h.sessions.Reset(r.Context(), identity.SessionKey, identity.Credential(), req.Confirm)
	if err != nil {
		h.writeOutcomeError(w, r, "ledger.reset", identity, err, outcome.Warnings)
		return
	}
	h.logWarnings(r, "ledger.reset", identity, outcome.Warnings)
	h.writeRecord(w, r, identity, http.StatusOK, outcome)
}

// run executes one reconciler cycle for the caller. It writes the error
// response itself and reports whether the handler should continue.
func (h *Handlers) run(w http.ResponseWriter, r *http.Request, action string, fn func(*ledgerdomain.Store) error) (middleware.Identity, syncdomain.Outcome, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not_authenticated", "sign in required")
		return middleware.Identity{}, syncdomain.Outcome{}, false
	}

	outcome, err := h.sessions.Run(r.Context(), identity.SessionKey, identity.Credential(), fn)
	if err != nil {
		h.writeOutcomeError(w, r, action, identity, err, outcome.Warnings)
		return identity, outcome, false
	}
	h.logWarnings(r, action, identity, outcome.Warnings)
	return identity, outcome, true
}

func (h *Handlers) writeRecord(w http.ResponseWriter, r *http.Request, identity middleware.Identity, status int, outcome syncdomain.Outcome) {
	document, err := ledgerdomain.Encode(outcome.Record)
	if err != nil {
		h.writeError(w, r, "ledger.record", identity, err)
		return
	}
	common.WriteJSON(w, status, recordResponse{
		outcomeResponse: newOutcome(outcome),
		Loaded:          outcome.Loaded,
		Record:          document,
		Stats:           ledgerdomain.ComputeStats(outcome.Record),
	})
}
