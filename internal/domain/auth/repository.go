package auth

import (
	"context"
	"time"
)

type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (Tokens, error)
	Register(ctx context.Context, email, password string) (Tokens, error)
	SendPasswordReset(ctx context.Context, email string) error
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)
}

type SessionCache interface {
	Get(id string) (*Session, bool)
	Set(id string, session *Session, ttl time.Duration)
	Delete(id string)
}
