package handler

import (
	"net/http"

	"github.com/Dan9191/web-banking/internal/config"
	"github.com/Dan9191/web-banking/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers every route. metrics serves /metrics and may be nil.
func NewRouter(h *Handler, cfg *config.Config, metrics http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(h.log))

	r.HandleFunc("/healthz", h.Health).Methods("GET")
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Handle("/metrics", metrics).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	// Public routes
	api.HandleFunc("/login", h.Login).Methods("POST")

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg))
	protected.HandleFunc("/accounts/{userId}", h.Accounts).Methods("GET")
	protected.HandleFunc("/all-accounts", h.AllAccounts).Methods("GET")
	protected.HandleFunc("/transactions/{accountNumber}", h.Transactions).Methods("GET")
	protected.HandleFunc("/mini-statement/{accountNumber}", h.MiniStatement).Methods("GET")
	protected.HandleFunc("/statement/{accountNumber}", h.Statement).Methods("GET")
	protected.HandleFunc("/transfer", h.Transfer).Methods("POST")
	return r
}
