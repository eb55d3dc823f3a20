package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenURL    = "https://securetoken.googleapis.com/v1"

	maxResponseBytes = 8 << 20
)

// ErrResponseTooLarge is returned instead of a truncated body.
var ErrResponseTooLarge = errors.New("firebase: response too large")

type Config struct {
	APIKey      string
	DatabaseURL string
	IdentityURL string
	TokenURL    string
	Timeout     time.Duration
}

type client struct {
	http *http.Client
}

func newClient(timeout time.Duration) client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return client{http: &http.Client{Timeout: timeout}}
}

// StatusError is a non-2xx response from a Firebase endpoint.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("firebase: status %d", e.Status)
	}
	return fmt.Sprintf("firebase: status %d: %s", e.Status, e.Message)
}

type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c client) do(ctx context.Context, method, url, contentType string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return err
	}
	if len(data) > maxResponseBytes {
		return fmt.Errorf("%w: more than %d bytes from %s", ErrResponseTooLarge, maxResponseBytes, req.URL.Path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("firebase: decode response: %w", err)
	}
	return nil
}

// errorMessage handles both the Identity Toolkit shape {"error":{"message"}}
// and the Realtime Database shape {"error":"..."}.
func errorMessage(data []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Error) == 0 {
		return strings.TrimSpace(string(data))
	}

	var text string
	if err := json.Unmarshal(envelope.Error, &text); err == nil {
		return text
	}

	var body errorBody
	if err := json.Unmarshal(envelope.Error, &body); err == nil {
		return body.Message
	}
	return ""
}
