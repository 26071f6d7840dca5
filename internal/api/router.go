package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/laudos/laudos-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	caseRead := s.authorize(auth.Permitted(auth.PermCaseRead), "")
	caseWrite := s.authorize(auth.Permitted(auth.PermCaseWrite), "")
	evidenceRead := s.authorize(auth.Permitted(auth.PermEvidenceRead), "")
	evidenceWrite := s.authorize(auth.Permitted(auth.PermEvidenceWrite), "")

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Credential endpoints (no auth required, rate-limited per client)
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitMiddleware)
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
		})

		// WebSocket (auth via ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/auth", func(r chi.Router) {
				r.Get("/profile", s.handleProfile)
				r.Post("/ws-ticket", s.handleWSTicket)
				r.With(s.authorize(auth.Permitted(auth.PermUserRead), "")).Get("/list", s.handleListUsers)
				r.With(s.authorize(auth.SelfOnly{}, "id")).Put("/update/{id}", s.handleUpdateUser)
				r.With(s.authorize(auth.Permitted(auth.PermUserDelete), "")).Delete("/delete/{id}", s.handleDeleteUser)
			})

			r.Route("/cases", func(r chi.Router) {
				r.With(caseWrite).Post("/", s.handleCreateCase)
				r.With(caseRead).Get("/", s.handleListCases)

				r.Route("/{id}", func(r chi.Router) {
					r.With(caseRead).Get("/", s.handleGetCase)
					r.With(caseWrite).Put("/", s.handleUpdateCase)
					r.With(caseWrite).Post("/evidence", s.handleAddCaseEvidence)
					r.With(caseWrite).Put("/close", s.handleCloseCase)
					r.With(caseRead).Get("/report", s.handleCaseReport)
				})
			})

			r.Route("/evidence", func(r chi.Router) {
				r.With(evidenceWrite).Post("/", s.handleCreateEvidence)
				r.With(evidenceRead).Get("/", s.handleListEvidence)

				r.Route("/{id}", func(r chi.Router) {
					r.With(evidenceRead).Get("/", s.handleGetEvidence)
					r.With(evidenceWrite).Put("/", s.handleUpdateEvidence)
					r.With(evidenceWrite).Delete("/", s.handleDeleteEvidence)
				})
			})

			r.With(s.authorize(auth.Permitted(auth.PermAuditRead), "")).Get("/audit", s.handleListAuditLogs)
			r.With(s.authorize(auth.Permitted(auth.PermSystemMetrics), "")).Get("/metrics", s.handleMetrics)
		})
	})

	return r
}

// handleHealth returns the server health status. A failing database makes
// the service unhealthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "ok",
		"version": s.version,
	}
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			s.logger.Warn("health check: database unavailable", "error", err)
			body["status"] = "degraded"
			body["database"] = "unavailable"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "ok"
	}
	writeJSON(w, http.StatusOK, body)
}
