package auth

import "time"

// Tokens is what the identity provider returns after sign-in or refresh.
type Tokens struct {
	UserID       string
	Email        string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Session is one signed-in browser tab or device. The ID token authorizes
// access to the user's remote Record.
type Session struct {
	ID           string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	IDToken      string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	Fallback     bool      `json:"fallback"`
}

// Persisted is the subset of a Session kept in the browser so the next visit
// can sign in again without a password.
type Persisted struct {
	SessionID    string `json:"sid,omitempty"`
	UserID       string `json:"localId"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
}

func (s Session) Persisted() Persisted {
	return Persisted{
		SessionID:    s.ID,
		UserID:       s.UserID,
		Email:        s.Email,
		RefreshToken: s.RefreshToken,
	}
}
