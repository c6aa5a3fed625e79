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
  4. CORS:       Cross-origin requests for dashboards
  5. Auth:       Pluggable request authentication
  6. Actor:      Resolves X-Actor for audit attribution

ROUTE GROUPS:
  /api/items/*         Catalog and stock
  /api/sales/*         Sale processing and reporting
  /api/history/*       Audit trail
  /api/inventory/*     Aggregate reports
  /api/scenarios/*     Demo scenarios
  /api/admin/*         Snapshot persistence
  /healthz             Liveness probe

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Authenticator implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, auth Authenticator) *chi.Mux {
	if auth == nil {
		auth = NoAuth{}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", ActorHeader, "X-API-Key"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(auth))
		r.Use(ActorMiddleware)

		// Catalog routes
		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)
			r.Get("/low-stock", h.ListLowStock)
			r.Get("/{id}", h.GetItem)
			r.Post("/{id}/restock", h.Restock)
		})

		// Sale routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.SubmitSale)
			r.Get("/summary", h.DailySummary)
			r.Get("/{id}", h.GetSale)
		})

		// History routes
		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.ListHistory)
			r.Get("/{txId}", h.GetTransactionHistory)
		})

		// Report routes
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/summary", h.InventorySummary)
		})
		r.Get("/alerts", h.ListAlerts)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/snapshot", h.SaveSnapshot)
		})
	})

	return r
}
