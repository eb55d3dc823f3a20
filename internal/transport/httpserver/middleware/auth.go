package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	authdomain "truck-ledger-go/internal/domain/auth"
	syncdomain "truck-ledger-go/internal/domain/sync"
	"truck-ledger-go/pkg/logger"
)

const FallbackHeader = "X-Session-Fallback"

type contextKey int

const identityKey contextKey = iota

// Identity is the authenticated caller. SessionKey selects the caller's
// reconciler; Token authorizes access to the remote Record.
type Identity struct {
	SessionKey string
	UserID     string
	Email      string
	Token      string
	Fallback   bool
	Local      bool
}

func (i Identity) Credential() syncdomain.Credential {
	return syncdomain.Credential{UserID: i.UserID, Token: i.Token}
}

type Sessions interface {
	Session(ctx context.Context, id string) (authdomain.Session, error)
	Restore(ctx context.Context, persisted authdomain.Persisted) (authdomain.Session, error)
}

// PersistedStore keeps the login in the browser between visits.
type PersistedStore interface {
	Read(r *http.Request) (authdomain.Persisted, error)
	Write(w http.ResponseWriter, persisted authdomain.Persisted) error
	Clear(w http.ResponseWriter)
}

type SessionAuth struct {
	sessions Sessions
	cookies  PersistedStore
	log      logger.Logger
	local    *Identity
}

func NewSessionAuth(sessions Sessions, cookies PersistedStore, log logger.Logger) *SessionAuth {
	return &SessionAuth{sessions: sessions, cookies: cookies, log: log}
}

// NewLocalAuth treats every request as the single local user. Used when no
// identity provider is configured.
func NewLocalAuth(userID, email string) *SessionAuth {
	return &SessionAuth{
		log: logger.Nop(),
		local: &Identity{
			SessionKey: "local:" + userID,
			UserID:     userID,
			Email:      email,
			Local:      true,
		},
	}
}

func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.local != nil {
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *a.local)))
			return
		}

		if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
			session, err := a.sessions.Session(r.Context(), token)
			if err != nil {
				a.log.BusinessError("auth.middleware: bearer session rejected", err)
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identityFromSession(session))))
			return
		}

		persisted, err := a.cookies.Read(r)
		if err != nil {
			if !errors.Is(err, http.ErrNoCookie) {
				a.log.BusinessError("auth.middleware: unreadable cookie", err)
				a.cookies.Clear(w)
			}
			unauthorized(w)
			return
		}

		session, err := a.sessions.Restore(r.Context(), persisted)
		if err != nil {
			a.log.BusinessError("auth.middleware: restore failed, forgetting cookie", err, "user_id", persisted.UserID)
			a.cookies.Clear(w)
			unauthorized(w)
			return
		}

		if session.ID != persisted.SessionID || session.RefreshToken != persisted.RefreshToken {
			if err := a.cookies.Write(w, session.Persisted()); err != nil {
				a.log.InternalError("auth.middleware: rewrite cookie failed", err, "user_id", session.UserID)
			}
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identityFromSession(session))))
	})
}

func identityFromSession(session authdomain.Session) Identity {
	return Identity{
		SessionKey: session.ID,
		UserID:     session.UserID,
		Email:      session.Email,
		Token:      session.IDToken,
		Fallback:   session.Fallback,
	}
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "not_authenticated", "sign in required")
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	if !ok || identity.UserID == "" {
		return Identity{}, false
	}
	return identity, true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
