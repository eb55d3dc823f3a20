package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"truck-ledger-go/internal/domain/auth"
)

var ErrAPIKeyNotConfigured = errors.New("firebase api key not configured")

// IdentityProvider talks to the Identity Toolkit and Secure Token REST APIs.
type IdentityProvider struct {
	client      client
	apiKey      string
	identityURL string
	tokenURL    string
}

func NewIdentityProvider(cfg Config) *IdentityProvider {
	identityURL := cfg.IdentityURL
	if identityURL == "" {
		identityURL = DefaultIdentityURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &IdentityProvider{
		client:      newClient(cfg.Timeout),
		apiKey:      cfg.APIKey,
		identityURL: strings.TrimRight(identityURL, "/"),
		tokenURL:    strings.TrimRight(tokenURL, "/"),
	}
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type oobRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
}

type refreshResponse struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

func (p *IdentityProvider) SignIn(ctx context.Context, email, password string) (auth.Tokens, error) {
	return p.password(ctx, "accounts:signInWithPassword", email, password)
}

func (p *IdentityProvider) Register(ctx context.Context, email, password string) (auth.Tokens, error) {
	return p.password(ctx, "accounts:signUp", email, password)
}

func (p *IdentityProvider) SendPasswordReset(ctx context.Context, email string) error {
	if p.apiKey == "" {
		return ErrAPIKeyNotConfigured
	}
	body, err := json.Marshal(oobRequest{RequestType: "PASSWORD_RESET", Email: email})
	if err != nil {
		return err
	}
	err = p.client.do(ctx, http.MethodPost, p.identityEndpoint("accounts:sendOobCode"), "application/json", body, nil)
	return mapIdentityError(err)
}

func (p *IdentityProvider) Refresh(ctx context.Context, refreshToken string) (auth.Tokens, error) {
	if p.apiKey == "" {
		return auth.Tokens{}, ErrAPIKeyNotConfigured
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	endpoint := p.tokenURL + "/token?" + url.Values{"key": {p.apiKey}}.Encode()

	var resp refreshResponse
	if err := p.client.do(ctx, http.MethodPost, endpoint, "application/x-www-form-urlencoded", []byte(form.Encode()), &resp); err != nil {
		return auth.Tokens{}, mapIdentityError(err)
	}

	return auth.Tokens{
		UserID:       resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    parseSeconds(resp.ExpiresIn),
	}, nil
}

func (p *IdentityProvider) password(ctx context.Context, method, email, password string) (auth.Tokens, error) {
	if p.apiKey == "" {
		return auth.Tokens{}, ErrAPIKeyNotConfigured
	}

	body, err := json.Marshal(passwordRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return auth.Tokens{}, err
	}

	var resp passwordResponse
	if err := p.client.do(ctx, http.MethodPost, p.identityEndpoint(method), "application/json", body, &resp); err != nil {
		return auth.Tokens{}, mapIdentityError(err)
	}

	return auth.Tokens{
		UserID:       resp.LocalID,
		Email:        resp.Email,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    parseSeconds(resp.ExpiresIn),
	}, nil
}

func (p *IdentityProvider) identityEndpoint(method string) string {
	return p.identityURL + "/" + method + "?" + url.Values{"key": {p.apiKey}}.Encode()
}

func mapIdentityError(err error) error {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return err
	}

	// Messages look like "WEAK_PASSWORD : Password should be at least 6 characters".
	code := strings.TrimSpace(strings.SplitN(statusErr.Message, ":", 2)[0])
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED", "INVALID_EMAIL":
		return auth.ErrInvalidCredentials
	case "EMAIL_EXISTS":
		return auth.ErrEmailExists
	case "WEAK_PASSWORD":
		return auth.ErrWeakPassword
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "USER_NOT_FOUND", "INVALID_GRANT_TYPE", "MISSING_REFRESH_TOKEN":
		return auth.ErrRefreshRejected
	default:
		return &auth.ProviderError{Status: statusErr.Status, Code: code}
	}
}

func parseSeconds(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
