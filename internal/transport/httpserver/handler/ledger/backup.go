package ledger

import (
	"errors"
	"io"
	"mime"
	"net/http"

	ledgerdomain "truck-ledger-go/internal/domain/ledger"
	"truck-ledger-go/internal/transport/httpserver/handler/common"
)

const (
	BackupFilename = "balls_logistics_backup.json"

	maxBackupBytes = 10 << 20
)

// ExportBackup downloads the canonical document.
func (h *Handlers) ExportBackup(w http.ResponseWriter, r *http.Request) {
	identity, outcome, ok := h.run(w, r, "ledger.export", nil)
	if !ok {
		return
	}

	document, err := ledgerdomain.Encode(outcome.Record)
	if err != nil {
		h.writeError(w, r, "ledger.export", identity, err)
		return
	}

	common.Attachment(w, "application/json", BackupFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

// ImportBackup replaces the Record with an uploaded document, sent either as
// the raw body or as the "file" field of a multipart form.
func (h *Handlers) ImportBackup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBackupBytes)

	data, err := readBackup(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "backup file is too large")
			return
		}
		common.WriteError(w, http.StatusBadRequest, "invalid_request", "backup file is required")
		return
	}

	identity, outcome, ok := h.run(w, r, "ledger.import", func(store *ledgerdomain.Store) error {
		return store.Import(data)
	})
	if !ok {
		return
	}
	h.requestLog(r).Info("ledger.import: record replaced", "user_id", identity.UserID, "log_entries", len(outcome.Record.Log))
	h.writeRecord(w, r, identity, http.StatusOK, outcome)
}

func readBackup(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, errors.New("empty body")
		}
		return data, nil
	}

	if err := r.ParseMultipartForm(maxBackupBytes); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
