package firebase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"truck-ledger-go/internal/domain/ledger"
	syncdomain "truck-ledger-go/internal/domain/sync"
)

var ErrDatabaseNotConfigured = errors.New("firebase database url not configured")

// RecordsRepository reads and writes users/<uid> in the Realtime Database over
// its REST API, authorized with the user's ID token.
type RecordsRepository struct {
	client  client
	baseURL string
}

func NewRecordsRepository(cfg Config) *RecordsRepository {
	return &RecordsRepository{
		client:  newClient(cfg.Timeout),
		baseURL: strings.TrimRight(cfg.DatabaseURL, "/"),
	}
}

func (r *RecordsRepository) Load(ctx context.Context, cred syncdomain.Credential) (*ledger.Record, error) {
	endpoint, err := r.endpoint(cred)
	if err != nil {
		return nil, err
	}

	var data []byte
	if err := r.client.do(ctx, http.MethodGet, endpoint, "", nil, &data); err != nil {
		return nil, err
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	// The database drops empty arrays and objects; Decode fills them back in.
	record, err := ledger.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode stored record: %w", err)
	}
	return &record, nil
}

func (r *RecordsRepository) Save(ctx context.Context, cred syncdomain.Credential, record ledger.Record) error {
	endpoint, err := r.endpoint(cred)
	if err != nil {
		return err
	}

	payload, err := ledger.Encode(record)
	if err != nil {
		return err
	}
	return r.client.do(ctx, http.MethodPut, endpoint, "application/json", payload, nil)
}

func (r *RecordsRepository) Delete(ctx context.Context, cred syncdomain.Credential) error {
	endpoint, err := r.endpoint(cred)
	if err != nil {
		return err
	}
	return r.client.do(ctx, http.MethodDelete, endpoint, "", nil, nil)
}

func (r *RecordsRepository) endpoint(cred syncdomain.Credential) (string, error) {
	if r.baseURL == "" {
		return "", ErrDatabaseNotConfigured
	}
	if cred.UserID == "" {
		return "", syncdomain.ErrMissingUserID
	}

	endpoint := r.baseURL + "/users/" + url.PathEscape(cred.UserID) + ".json"
	if cred.Token != "" {
		endpoint += "?" + url.Values{"auth": {cred.Token}}.Encode()
	}
	return endpoint, nil
}
