package ledger

import (
	"bytes"
	"net/http"

	"truck-ledger-go/internal/domain/reports"
	"truck-ledger-go/internal/transport/httpserver/handler/common"
)

func (h *Handlers) TextReport(w http.ResponseWriter, r *http.Request) {
	_, outcome, ok := h.run(w, r, "reports.text", nil)
	if !ok {
		return
	}
	common.Attachment(w, reports.ContentTypeText, reports.TextFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(reports.Text(outcome.Record)))
}

func (h *Handlers) IncomeCSV(w http.ResponseWriter, r *http.Request) {
	identity, outcome, ok := h.run(w, r, "reports.income", nil)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteIncomeCSV(&buf, outcome.Record); err != nil {
		h.writeError(w, r, "reports.income", identity, err)
		return
	}
	common.Attachment(w, reports.ContentTypeCSV, reports.IncomeFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Workbook is rendered into memory first so a failure can still produce a
// JSON error instead of a truncated file.
func (h *Handlers) Workbook(w http.ResponseWriter, r *http.Request) {
	identity, outcome, ok := h.run(w, r, "reports.workbook", nil)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteWorkbook(&buf, outcome.Record); err != nil {
		h.writeError(w, r, "reports.workbook", identity, err)
		return
	}
	common.Attachment(w, reports.ContentTypeWorkbook, reports.WorkbookFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
