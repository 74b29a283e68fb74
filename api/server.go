/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for admin UI

ROUTE GROUPS:
  /api/payrolls/*      Payroll versions and dates
  /api/families/*      Version-chain reads
  /api/activations/*   Batch activation
  /api/assignments/*   Bulk reassignment and audit trail
  /api/holidays/*      Holiday reference data
  /api/rules           Adjustment rule configuration
  /api/scenarios/*     Demo scenarios

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Payroll routes
		r.Route("/payrolls", func(r chi.Router) {
			r.Post("/", h.CreatePayroll)
			r.Get("/{id}", h.GetPayroll)
			r.Post("/{id}/versions", h.CreateVersion)
			r.Post("/{id}/versions/simple", h.CreateVersionSimple)
			r.Post("/{id}/dates/generate", h.GenerateDates)
			r.Get("/{id}/dates", h.ListDates)
		})

		// Family routes
		r.Route("/families", func(r chi.Router) {
			r.Get("/{rootId}/current", h.GetCurrent)
			r.Get("/{rootId}/history", h.GetHistory)
		})

		// Activation routes
		r.Route("/activations", func(r chi.Router) {
			r.Post("/run", h.RunActivation)
			r.Get("/runs", h.ListActivationRuns)
		})

		// Assignment routes
		r.Route("/assignments", func(r chi.Router) {
			r.Post("/commit", h.CommitAssignments)
			r.Get("/{dateId}/audits", h.ListAssignmentAudits)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Post("/defaults", h.AddDefaultHolidays)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		// Rule routes
		r.Get("/rules", h.ListRules)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
