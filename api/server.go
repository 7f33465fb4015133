/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the portal

ROUTE GROUPS:
  /api/calc/*, /api/pricing/*      Calculators
  /api/claims/*                    Claim drafts, status and PRODA export
  /api/reconciliations/*           Reconciliation statements
  /api/statements, /api/documents  Document parsing
  /api/exceptions/*                Exception workflow
  /api/scenarios/*                 Demo data
  /api/cron/*                      Scheduled jobs (bearer token)
  /healthz                         Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: bearer token middleware
  - cmd/pfengine/serve.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// CORSOrigins defaults to the local portal dev servers.
	CORSOrigins []string
	// CronSecret signs bearer tokens for /api/cron. Empty disables the check.
	CronSecret string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/calc", func(r chi.Router) {
			r.Post("/sda", h.CalculateSDA)
			r.Post("/mrrc", h.CalculateMRRC)
		})
		r.Get("/pricing/location-factors", h.ListLocationFactors)

		r.Route("/claims", func(r chi.Router) {
			r.Get("/", h.ListClaims)
			r.Post("/generate", h.GenerateClaim)
			r.Post("/validate", h.ValidateClaim)
			r.Post("/proda-export", h.ExportProdaCSV)
			r.Post("/{id}/reject", h.RejectClaim)
			r.Post("/{id}/status", h.UpdateClaimStatus)
		})

		r.Route("/reconciliations", func(r chi.Router) {
			r.Get("/", h.ListReconciliations)
			r.Post("/generate", h.GenerateReconciliation)
			r.Post("/validate", h.ValidateReconciliation)
			r.Post("/{id}/status", h.UpdateReconciliationStatus)
		})

		r.Post("/statements/parse", h.ParseStatement)
		r.Post("/documents/classify", h.ClassifyDocument)
		r.Get("/integrations", h.ListIntegrations)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		r.Route("/exceptions", func(r chi.Router) {
			r.Get("/", h.ListExceptions)
			r.Get("/counts", h.ExceptionCounts)
			r.Get("/{id}", h.GetException)
			r.Post("/{id}/{action}", h.TransitionException)
		})

		r.Route("/cron", func(r chi.Router) {
			r.Use(RequireBearer(opts.CronSecret, h.now))
			r.Post("/exception-check", h.RunExceptionCheck)
			r.Post("/payment-followup", h.RunPaymentFollowup)
			r.Post("/monthly-cycle", h.RunMonthlyCycle)
		})
	})

	return r
}
