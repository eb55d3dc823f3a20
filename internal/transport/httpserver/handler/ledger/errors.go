package ledger

import (
	"errors"
	"net/http"

	ledgerdomain "truck-ledger-go/internal/domain/ledger"
	syncdomain "truck-ledger-go/internal/domain/sync"
	"truck-ledger-go/internal/transport/httpserver/handler/common"
	"truck-ledger-go/internal/transport/httpserver/middleware"
	"truck-ledger-go/pkg/logger"
)

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, action string, identity middleware.Identity, err error) {
	h.writeOutcomeError(w, r, action, identity, err, nil)
}

// writeOutcomeError keeps the warnings of a failed cycle, such as a load
// failure in the same request that rejected the input.
func (h *Handlers) writeOutcomeError(w http.ResponseWriter, r *http.Request, action string, identity middleware.Identity, err error, warnings []syncdomain.Warning) {
	h.logWarnings(r, action, identity, warnings)
	status, code, message := h.classify(r, action, identity, err)
	if len(warnings) == 0 {
		common.WriteError(w, status, code, message)
		return
	}
	common.WriteErrorWithWarnings(w, status, code, message, warnings)
}

func (h *Handlers) classify(r *http.Request, action string, identity middleware.Identity, err error) (int, string, string) {
	log := h.requestLog(r)
	var decodeErr *ledgerdomain.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		log.BusinessError(action+": rejected document", err, "user_id", identity.UserID)
		return http.StatusBadRequest, "invalid_document", decodeErr.Error()
	case errors.Is(err, ledgerdomain.ErrBaselineAlreadySet):
		return http.StatusConflict, "baseline_already_set", err.Error()
	case errors.Is(err, ledgerdomain.ErrInvalidBaseline),
		errors.Is(err, ledgerdomain.ErrInvalidOdometer),
		errors.Is(err, ledgerdomain.ErrZeroDistance),
		errors.Is(err, ledgerdomain.ErrInvalidAmount),
		errors.Is(err, ledgerdomain.ErrInvalidExpenseType):
		return http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, ledgerdomain.ErrExpenseIndexOutOfRange),
		errors.Is(err, ledgerdomain.ErrExpenseNotFound):
		return http.StatusNotFound, "expense_not_found", err.Error()
	case errors.Is(err, syncdomain.ErrResetNotConfirm):
		return http.StatusBadRequest, "confirmation_required", err.Error()
	case errors.Is(err, syncdomain.ErrMissingUserID),
		errors.Is(err, syncdomain.ErrMissingSession),
		errors.Is(err, syncdomain.ErrUserMismatch):
		return http.StatusUnauthorized, "not_authenticated", "sign in required"
	default:
		log.InternalError(action+": failed", err, "user_id", identity.UserID)
		return http.StatusInternalServerError, "internal_error", "internal error"
	}
}

func (h *Handlers) logWarnings(r *http.Request, action string, identity middleware.Identity, warnings []syncdomain.Warning) {
	for _, warning := range warnings {
		h.requestLog(r).Warn(action+": persistence warning", "user_id", identity.UserID, "code", warning.Code)
	}
}

func (h *Handlers) requestLog(r *http.Request) logger.Logger {
	return logger.FromContext(r.Context(), h.log)
}
