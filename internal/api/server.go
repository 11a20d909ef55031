// Package api provides the HTTP server for Inkwell.
// It exposes the credit-metered operation dispatcher, the credit
// account endpoints, and the payment webhook.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkwell-pdf/inkwell/internal/daemon"
	"github.com/inkwell-pdf/inkwell/internal/domain"
	"github.com/inkwell-pdf/inkwell/internal/ops"
)

// CreditLedger is the slice of the ledger the HTTP layer depends on.
// Satisfied by *ledger.Service.
type CreditLedger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	CheckSufficient(ctx context.Context, userID string, cost int64) (bool, int64, error)
	Settle(ctx context.Context, userID string, cost int64, reason string) (int64, error)
	GrantOnce(ctx context.Context, eventID, userID string, amount int64, reason string) (int64, bool, error)
	History(ctx context.Context, userID string, limit int) ([]domain.CreditTransaction, error)
}

// Server is the Inkwell HTTP API server.
type Server struct {
	cfg      *daemon.Config
	registry *ops.Registry
	ledger   CreditLedger
	verifier domain.TokenVerifier
	log      *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg *daemon.Config, registry *ops.Registry, ledger CreditLedger, verifier domain.TokenVerifier, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg, registry: registry, ledger: ledger, verifier: verifier, log: log}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout()))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	// Operation metadata needs no authentication; invoking one does.
	r.Get("/operations", s.handleListOperations)
	r.Post("/operations", s.handleOperation)

	r.Route("/credits", func(r chi.Router) {
		r.Get("/balance", s.handleBalance)
		r.Post("/deduct", s.handleDeduct)
		r.Get("/history", s.handleHistory)
	})

	r.Post("/webhooks/payment", s.handlePaymentWebhook)

	if s.cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// handleListOperations returns the cost and usage table for every
// registered operation.
func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"operations": s.registry.Costs(),
		"usage":      s.registry.Usage(),
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers so browser clients can call the API
// directly.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Credits-Used, X-Message, X-Settlement")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
