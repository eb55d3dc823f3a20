package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"truck-ledger-go/internal/config"
	"truck-ledger-go/internal/transport/httpserver/handler"
	authmw "truck-ledger-go/internal/transport/httpserver/middleware"
	"truck-ledger-go/pkg/logger"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, auth *authmw.SessionAuth, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(authmw.RequestLog(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORS.AllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)

		if cfg.IdentityEnabled() {
			limiter := authmw.NewRateLimit(cfg.RateLimit.AuthPerMinute, cfg.RateLimit.AuthBurst)
			r.Group(func(r chi.Router) {
				r.Use(limiter.Middleware)

				r.Post("/auth/login", handlers.Auth.Login)
				r.Post("/auth/register", handlers.Auth.Register)
				r.Post("/auth/password-reset", handlers.Auth.PasswordReset)
			})
		} else {
			log.Info("identity provider not configured, serving the local ledger", "user_id", cfg.File.UserID)
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Common.AuthMe)
			if cfg.IdentityEnabled() {
				r.Post("/auth/logout", handlers.Auth.Logout)
			}

			r.Get("/record", handlers.Ledger.GetRecord)
			r.Put("/baseline", handlers.Ledger.SetBaseline)
			r.Post("/trips", handlers.Ledger.ConfirmTrip)

			r.Get("/expenses", handlers.Ledger.ListExpenses)
			r.Post("/expenses", handlers.Ledger.AddExpense)
			r.Put("/expenses/{index}", handlers.Ledger.EditExpense)
			r.Delete("/expenses/{index}", handlers.Ledger.DeleteExpense)
			r.Put("/expenses/id/{id}", handlers.Ledger.EditExpenseByID)
			r.Delete("/expenses/id/{id}", handlers.Ledger.DeleteExpenseByID)

			r.Get("/earnings", handlers.Ledger.ListEarnings)
			r.Post("/earnings", handlers.Ledger.AddEarning)

			r.Get("/log", handlers.Ledger.ListLog)
			r.Get("/stats", handlers.Ledger.Stats)

			r.Get("/backup", handlers.Ledger.ExportBackup)
			r.Post("/backup", handlers.Ledger.ImportBackup)
			r.Post("/reset", handlers.Ledger.Reset)

			r.Get("/reports/text", handlers.Ledger.TextReport)
			r.Get("/reports/income.csv", handlers.Ledger.IncomeCSV)
			r.Get("/reports/workbook.xlsx", handlers.Ledger.Workbook)
		})
	})

	return r
}
