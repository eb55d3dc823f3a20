package httpserver

import (
	"net/http"
	"time"

	"truck-ledger-go/internal/config"
)

// Write timeout leaves room for workbook downloads; read timeout for backup
// uploads.
func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
