package cookiestore

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"truck-ledger-go/internal/domain/auth"
)

func roundTrip(t *testing.T, writer, reader *Store, persisted auth.Persisted) (auth.Persisted, error) {
	t.Helper()

	rec := httptest.NewRecorder()
	if err := writer.Write(rec, persisted); err != nil {
		t.Fatalf("write: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return reader.Read(req)
}

func TestWriteReadRoundTrip(t *testing.T) {
	store, err := New(Config{Name: "bl_auth", Password: "secret", MaxAge: time.Hour})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	want := auth.Persisted{SessionID: "s1", UserID: "u1", Email: "driver@example.com", RefreshToken: "r1"}
	got, err := roundTrip(t, store, store, want)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestSamePasswordSurvivesRestart(t *testing.T) {
	first, _ := New(Config{Password: "secret"})
	second, _ := New(Config{Password: "secret"})

	if _, err := roundTrip(t, first, second, auth.Persisted{RefreshToken: "r1"}); err != nil {
		t.Fatalf("expected cookie to decrypt with the same password: %v", err)
	}
}

func TestWrongKeyRejected(t *testing.T) {
	first, _ := New(Config{Password: "secret"})
	other, _ := New(Config{Password: "other"})

	if _, err := roundTrip(t, first, other, auth.Persisted{RefreshToken: "r1"}); !errors.Is(err, ErrInvalidCookie) {
		t.Fatalf("expected ErrInvalidCookie, got %v", err)
	}
}

func TestMissingAndTamperedCookie(t *testing.T) {
	store, _ := New(Config{Password: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := store.Read(req); !errors.Is(err, http.ErrNoCookie) {
		t.Fatalf("expected ErrNoCookie, got %v", err)
	}

	req.AddCookie(&http.Cookie{Name: "bl_auth", Value: "not-base64!"})
	if _, err := store.Read(req); !errors.Is(err, ErrInvalidCookie) {
		t.Fatalf("expected ErrInvalidCookie, got %v", err)
	}
}

func TestClearExpiresCookie(t *testing.T) {
	store, _ := New(Config{Password: "secret"})
	rec := httptest.NewRecorder()
	store.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %+v", cookies)
	}
}
