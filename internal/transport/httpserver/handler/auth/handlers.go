package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	authdomain "truck-ledger-go/internal/domain/auth"
	"truck-ledger-go/internal/transport/httpserver/handler/common"
	"truck-ledger-go/internal/transport/httpserver/middleware"
	"truck-ledger-go/pkg/logger"
)

type Service interface {
	SignIn(ctx context.Context, email, password string, fallback bool) (authdomain.Session, error)
	Register(ctx context.Context, email, password, confirm string, fallback bool) (authdomain.Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	Logout(id string)
}

// SessionForgetter drops per-session state held outside the auth service.
type SessionForgetter interface {
	Forget(sessionKey string)
}

type Handlers struct {
	service  Service
	cookies  middleware.PersistedStore
	sessions SessionForgetter
	log      logger.Logger
}

func New(service Service, cookies middleware.PersistedStore, sessions SessionForgetter, log logger.Logger) *Handlers {
	return &Handlers{
		service:  service,
		cookies:  cookies,
		sessions: sessions,
		log:      log,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Fallback bool   `json:"fallback"`
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Fallback        bool   `json:"fallback"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	SessionID string    `json:"session_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Fallback  bool      `json:"fallback"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password, req.Fallback || fallbackRequested(r))
	if err != nil {
		h.writeAuthError(w, "auth.login", err)
		return
	}
	h.respondSession(w, http.StatusOK, session)
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}

	session, err := h.service.Register(r.Context(), req.Email, req.Password, req.ConfirmPassword, req.Fallback || fallbackRequested(r))
	if err != nil {
		h.writeAuthError(w, "auth.register", err)
		return
	}
	h.respondSession(w, http.StatusCreated, session)
}

func (h *Handlers) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !common.DecodeValid(w, r, &req) {
		return
	}

	if err := h.service.SendPasswordReset(r.Context(), req.Email); err != nil {
		h.writeAuthError(w, "auth.password_reset", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not_authenticated", "sign in required")
		return
	}

	h.service.Logout(identity.SessionKey)
	h.sessions.Forget(identity.SessionKey)
	if !identity.Fallback {
		h.cookies.Clear(w)
	}
	h.log.Info("auth.logout: session closed", "user_id", identity.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) respondSession(w http.ResponseWriter, status int, session authdomain.Session) {
	resp := sessionResponse{
		UserID:    session.UserID,
		Email:     session.Email,
		ExpiresAt: session.ExpiresAt,
		Fallback:  session.Fallback,
	}

	if session.Fallback {
		resp.SessionID = session.ID
	} else if err := h.cookies.Write(w, session.Persisted()); err != nil {
		h.log.InternalError("auth.session: write cookie failed", err, "user_id", session.UserID)
		common.WriteError(w, http.StatusInternalServerError, "internal_error", "could not persist session")
		return
	}

	common.WriteJSON(w, status, resp)
}

func (h *Handlers) writeAuthError(w http.ResponseWriter, action string, err error) {
	var providerErr *authdomain.ProviderError
	switch {
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		common.WriteError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, authdomain.ErrEmailExists):
		common.WriteError(w, http.StatusConflict, "email_exists", err.Error())
	case errors.Is(err, authdomain.ErrPasswordMismatch),
		errors.Is(err, authdomain.ErrWeakPassword),
		errors.Is(err, authdomain.ErrEmailRequired),
		errors.Is(err, authdomain.ErrPasswordRequired):
		common.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.As(err, &providerErr):
		h.log.BusinessError(action+": identity provider error", err)
		common.WriteError(w, http.StatusBadGateway, "provider_error", "identity provider unavailable")
	default:
		h.log.InternalError(action+": failed", err)
		common.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func fallbackRequested(r *http.Request) bool {
	value := strings.TrimSpace(r.Header.Get(middleware.FallbackHeader))
	return value == "1" || strings.EqualFold(value, "true")
}
