package common

import (
	"net/http"

	"truck-ledger-go/internal/transport/httpserver/middleware"
)

type authMeResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	SessionID string `json:"session_id,omitempty"`
	Fallback  bool   `json:"fallback"`
	Local     bool   `json:"local"`
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "sign in required")
		return
	}

	resp := authMeResponse{
		ID:       identity.UserID,
		Email:    identity.Email,
		Fallback: identity.Fallback,
		Local:    identity.Local,
	}
	if identity.Fallback {
		resp.SessionID = identity.SessionKey
	}
	writeJSON(w, http.StatusOK, resp)
}
