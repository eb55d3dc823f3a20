package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"truck-ledger-go/pkg/logger"
)

const (
	defaultSessionTTL = 2 * time.Hour
	// Refresh this long before the ID token actually expires.
	refreshSkew = 5 * time.Minute
)

type Service struct {
	provider   IdentityProvider
	sessions   SessionCache
	log        logger.Logger
	sessionTTL time.Duration
	now        func() time.Time
}

type Option func(*Service)

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(provider IdentityProvider, sessions SessionCache, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		provider:   provider,
		sessions:   sessions,
		log:        log,
		sessionTTL: defaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SignIn(ctx context.Context, email, password string, fallback bool) (Session, error) {
	email, err := normalizeCredentials(email, password)
	if err != nil {
		return Session{}, err
	}

	tokens, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	if tokens.Email == "" {
		tokens.Email = email
	}

	session := s.open(tokens, fallback)
	s.log.Info("auth.sign_in: session opened", "user_id", session.UserID, "fallback", fallback)
	return session, nil
}

// Register creates the account and signs it in.
func (s *Service) Register(ctx context.Context, email, password, confirm string, fallback bool) (Session, error) {
	email, err := normalizeCredentials(email, password)
	if err != nil {
		return Session{}, err
	}
	if password != confirm {
		return Session{}, ErrPasswordMismatch
	}

	if _, err := s.provider.Register(ctx, email, password); err != nil {
		return Session{}, err
	}
	s.log.Info("auth.register: account created", "email", email)

	return s.SignIn(ctx, email, password, fallback)
}

func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	return s.provider.SendPasswordReset(ctx, email)
}

// Restore signs in again from what the browser kept. A rejected refresh token
// means the caller must forget the persisted copy.
func (s *Service) Restore(ctx context.Context, persisted Persisted) (Session, error) {
	if persisted.RefreshToken == "" {
		return Session{}, ErrNotAuthenticated
	}

	if persisted.SessionID != "" {
		if session, ok := s.sessions.Get(persisted.SessionID); ok && session.UserID == persisted.UserID {
			return s.ensureFresh(ctx, *session)
		}
	}

	tokens, err := s.provider.Refresh(ctx, persisted.RefreshToken)
	if err != nil {
		s.log.BusinessError("auth.restore: refresh failed", err, "user_id", persisted.UserID)
		return Session{}, ErrNotAuthenticated
	}
	if tokens.UserID == "" {
		tokens.UserID = persisted.UserID
	}
	if tokens.Email == "" {
		tokens.Email = persisted.Email
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = persisted.RefreshToken
	}

	session := s.open(tokens, false)
	s.log.Info("auth.restore: session restored", "user_id", session.UserID)
	return session, nil
}

// Session returns a live session by id, refreshing its ID token when it is
// close to expiry.
func (s *Service) Session(ctx context.Context, id string) (Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Session{}, ErrNotAuthenticated
	}
	session, ok := s.sessions.Get(id)
	if !ok {
		return Session{}, ErrNotAuthenticated
	}
	return s.ensureFresh(ctx, *session)
}

func (s *Service) Logout(id string) {
	if id == "" {
		return
	}
	s.sessions.Delete(id)
}

func (s *Service) ensureFresh(ctx context.Context, session Session) (Session, error) {
	if s.now().Add(refreshSkew).Before(session.ExpiresAt) {
		s.sessions.Set(session.ID, &session, s.sessionTTL)
		return session, nil
	}

	tokens, err := s.provider.Refresh(ctx, session.RefreshToken)
	if err != nil {
		s.log.BusinessError("auth.refresh: refresh failed, ending session", err, "user_id", session.UserID)
		s.sessions.Delete(session.ID)
		if errors.Is(err, ErrRefreshRejected) {
			return Session{}, ErrNotAuthenticated
		}
		return Session{}, errors.Join(ErrNotAuthenticated, err)
	}

	session.IDToken = tokens.IDToken
	if tokens.RefreshToken != "" {
		session.RefreshToken = tokens.RefreshToken
	}
	session.ExpiresAt = s.tokenExpiry(tokens)
	s.sessions.Set(session.ID, &session, s.sessionTTL)
	s.log.Debug("auth.refresh: id token refreshed", "user_id", session.UserID)
	return session, nil
}

func (s *Service) open(tokens Tokens, fallback bool) Session {
	session := Session{
		ID:           uuid.NewString(),
		UserID:       tokens.UserID,
		Email:        tokens.Email,
		IDToken:      tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    s.tokenExpiry(tokens),
		Fallback:     fallback,
	}
	s.sessions.Set(session.ID, &session, s.sessionTTL)
	return session
}

// tokenExpiry prefers the exp claim of the ID token. The signature is not
// checked here; the storage backend verifies the token on use.
func (s *Service) tokenExpiry(tokens Tokens) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokens.IDToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	if tokens.ExpiresIn > 0 {
		return s.now().Add(tokens.ExpiresIn)
	}
	return s.now().Add(time.Hour)
}

func normalizeCredentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmailRequired
	}
	if password == "" {
		return "", ErrPasswordRequired
	}
	return email, nil
}
