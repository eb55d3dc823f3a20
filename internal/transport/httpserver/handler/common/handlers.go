package common

import (
	"net/http"

	"truck-ledger-go/pkg/logger"
)

type Handlers struct {
	driver string
	log    logger.Logger
}

func New(driver string, log logger.Logger) *Handlers {
	return &Handlers{driver: driver, log: log}
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Store: h.driver})
}
