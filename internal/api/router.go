// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintx-engine/internal/api/handler"
	"fintx-engine/internal/metrics"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(transactionHandler *handler.TransactionHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics
	r.Handle("/metrics", metrics.Handler())

	// Transaction engine API
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", transactionHandler.Create)
		r.Get("/{transactionID}", transactionHandler.GetOne)
		r.Get("/{transactionID}/status", transactionHandler.GetStatus)
		r.Post("/{transactionID}/cancel", transactionHandler.Cancel)
		r.Post("/{transactionID}/reverse", transactionHandler.Reverse)
	})

	// Wallet bootstrap and listing
	r.Route("/wallets", func(r chi.Router) {
		r.Post("/", transactionHandler.CreateWallet)
		r.Get("/{walletID}", transactionHandler.GetWallet)
		r.Get("/{walletID}/transactions", transactionHandler.ListByWallet)
	})

	return r
}
