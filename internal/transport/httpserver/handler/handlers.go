package handler

import (
	"truck-ledger-go/internal/transport/httpserver/handler/auth"
	"truck-ledger-go/internal/transport/httpserver/handler/common"
	"truck-ledger-go/internal/transport/httpserver/handler/ledger"
)

type Handlers struct {
	Common *common.Handlers
	Auth   *auth.Handlers
	Ledger *ledger.Handlers
}

// New bundles the handler groups. authHandlers is nil when no identity
// provider is configured.
func New(commonHandlers *common.Handlers, authHandlers *auth.Handlers, ledgerHandlers *ledger.Handlers) *Handlers {
	return &Handlers{
		Common: commonHandlers,
		Auth:   authHandlers,
		Ledger: ledgerHandlers,
	}
}
