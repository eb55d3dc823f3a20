package auth

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrRefreshRejected    = errors.New("refresh token rejected")
)

// ProviderError is an identity provider failure that has no domain meaning.
type ProviderError struct {
	Status int
	Code   string
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("identity provider: status %d", e.Status)
	}
	return fmt.Sprintf("identity provider: %s (status %d)", e.Code, e.Status)
}
