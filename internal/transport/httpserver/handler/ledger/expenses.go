package ledger

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	ledgerdomain "truck-ledger-go/internal/domain/ledger"
	"truck-ledger-go/internal/transport/httpserver/handler/common"
)

type expenseRequest struct {
	Type        string   `json:"type" validate:"required"`
	Description string   `json:"description" validate:"max=500"`
	Amount      *float64 `json:"amount" validate:"required,gte=0"`
}

func (req expenseRequest) fields() ledgerdomain.ExpenseFields {
	return ledgerdomain.ExpenseFields{
		Type:        ledgerdomain.ExpenseType(strings.TrimSpace(req.Type)),
		Description: req.Description,
		Amount:      *req.Amount,
	}
}

type expenseItem struct {
	Index int `json:"index"`
	ledgerdomain.Expense
}

type expensesResponse struct {
	outcomeResponse
	Items      []expenseItem                `json:"items"`
	Total      float64                      `json:"total"`
	ByCategory []ledgerdomain.CategoryTotal `json:"by_category"`
	Types      []ledgerdomain.ExpenseType   `json:"types"`
}

type expenseResponse struct {
	outcomeResponse
	Expense ledgerdomain.Expense `json:"expense"`
}

func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	_, outcome, ok := h.run(w, r, "ledger.expenses", nil)
	if !ok {
		return
	}

	expenses := outcome.Record.Expenses
	items := make([]expenseItem, 0, len(expenses))
	for i, expense := range expenses {
		items = append(items, expenseItem{Index: i, Expense: expense})
	}

	common.WriteJSON(w, http.StatusOK, expensesResponse{
		outcomeResponse: newOutcome(outcome),
		Items:           items,
		Total:           ledgerdomain.TotalExpenses(expenses),
		ByCategory:      ledgerdomain.ExpensesByCategory(expenses),
		Types:           ledgerdomain.ExpenseTypes,
	})
}

func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}
	h.mutateExpense(w, r, "ledger.expense_add", http.StatusCreated, func(store *ledgerdomain.Store) (ledgerdomain.Expense, error) {
		return store.AddExpense(req.fields())
	})
}

func (h *Handlers) EditExpense(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req expenseRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}
	h.mutateExpense(w, r, "ledger.expense_edit", http.StatusOK, func(store *ledgerdomain.Store) (ledgerdomain.Expense, error) {
		return store.EditExpense(index, req.fields())
	})
}

func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	h.mutateExpense(w, r, "ledger.expense_delete", http.StatusOK, func(store *ledgerdomain.Store) (ledgerdomain.Expense, error) {
		return store.DeleteExpense(index)
	})
}

func (h *Handlers) EditExpenseByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req expenseRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}
	h.mutateExpense(w, r, "ledger.expense_edit", http.StatusOK, func(store *ledgerdomain.Store) (ledgerdomain.Expense, error) {
		return store.EditExpenseByID(id, req.fields())
	})
}

func (h *Handlers) DeleteExpenseByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutateExpense(w, r, "ledger.expense_delete", http.StatusOK, func(store *ledgerdomain.Store) (ledgerdomain.Expense, error) {
		return store.DeleteExpenseByID(id)
	})
}

func (h *Handlers) mutateExpense(w http.ResponseWriter, r *http.Request, action string, status int, fn func(*ledgerdomain.Store) (ledgerdomain.Expense, error)) {
	var expense ledgerdomain.Expense
	_, outcome, ok := h.run(w, r, action, func(store *ledgerdomain.Store) error {
		var err error
		expense, err = fn(store)
		return err
	})
	if !ok {
		return
	}
	common.WriteJSON(w, status, expenseResponse{outcomeResponse: newOutcome(outcome), Expense: expense})
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "index")))
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid_request", "expense index must be an integer")
		return 0, false
	}
	return index, true
}
