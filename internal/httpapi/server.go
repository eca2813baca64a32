// Package httpapi serves the reconciliation results to an external
// review UI: the balance, the audit trail, the pending reviews and a
// resolve endpoint. Handlers stay thin; the engine owns the rules.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/splitbooks-dev/splitbooks/internal/model"
)

// Reconciler is the engine surface the API needs. Implementations must
// be safe for concurrent use.
type Reconciler interface {
	FinalBalance() model.BalanceReport
	AuditTrail() []model.AuditEntry
	PendingReview() []model.ReviewItem
	ResolveReview(id uuid.UUID, d model.ReviewDecision) (model.AuditEntry, error)
}

// Server wires handlers and middleware using Chi.
type Server struct {
	rec    Reconciler
	roster model.Roster
	log    *slog.Logger
	rt     *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(rec Reconciler, roster model.Roster, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{rec: rec, roster: roster, log: logger, rt: r}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

func (s *Server) routes() {
	s.rt.Get("/v1/balance", s.getBalance)
	s.rt.Get("/v1/audit", s.getAudit)
	s.rt.Get("/v1/reviews", s.getReviews)
	s.rt.Post("/v1/reviews/{id}/resolve", s.resolveReview)

	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

// readyz also succeeds or fails with the engine: a halted engine
// poisons every call, so probing the balance is the readiness check.
func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	_ = s.rec.FinalBalance()
	w.WriteHeader(http.StatusOK)
}
