package cookiestore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"

	"truck-ledger-go/internal/domain/auth"
)

const (
	keySize   = 32
	nonceSize = 24
	hkdfInfo  = "truck-ledger auth cookie v1"
)

var ErrInvalidCookie = errors.New("invalid auth cookie")

type Config struct {
	Name     string
	Password string
	Secure   bool
	MaxAge   time.Duration
}

// Store keeps the persisted login in an encrypted, authenticated cookie.
type Store struct {
	name   string
	key    [keySize]byte
	secure bool
	maxAge time.Duration
}

// New derives the cookie key from cfg.Password. An empty password gets a
// random key, so cookies do not survive a restart.
func New(cfg Config) (*Store, error) {
	s := &Store{
		name:   cfg.Name,
		secure: cfg.Secure,
		maxAge: cfg.MaxAge,
	}
	if s.name == "" {
		s.name = "bl_auth"
	}

	if cfg.Password == "" {
		if _, err := io.ReadFull(rand.Reader, s.key[:]); err != nil {
			return nil, err
		}
		return s, nil
	}

	reader := hkdf.New(sha256.New, []byte(cfg.Password), []byte(s.name), []byte(hkdfInfo))
	if _, err := io.ReadFull(reader, s.key[:]); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Read(r *http.Request) (auth.Persisted, error) {
	cookie, err := r.Cookie(s.name)
	if err != nil || cookie.Value == "" {
		return auth.Persisted{}, http.ErrNoCookie
	}

	sealed, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil || len(sealed) < nonceSize+secretbox.Overhead {
		return auth.Persisted{}, ErrInvalidCookie
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return auth.Persisted{}, ErrInvalidCookie
	}

	var persisted auth.Persisted
	if err := json.Unmarshal(plain, &persisted); err != nil {
		return auth.Persisted{}, ErrInvalidCookie
	}
	return persisted, nil
}

func (s *Store) Write(w http.ResponseWriter, persisted auth.Persisted) error {
	plain, err := json.Marshal(persisted)
	if err != nil {
		return err
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return err
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &s.key)

	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    base64.RawURLEncoding.EncodeToString(sealed),
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
