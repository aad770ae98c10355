package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/budget-tracker/internal/auth"
	"github.com/frahmantamala/budget-tracker/internal/budget"
	"github.com/frahmantamala/budget-tracker/internal/category"
	"github.com/frahmantamala/budget-tracker/internal/dashboard"
	"github.com/frahmantamala/budget-tracker/internal/export"
	"github.com/frahmantamala/budget-tracker/internal/goal"
	"github.com/frahmantamala/budget-tracker/internal/transaction"
	"github.com/frahmantamala/budget-tracker/internal/transport/middleware"
	"github.com/frahmantamala/budget-tracker/internal/transport/swagger"
	"github.com/frahmantamala/budget-tracker/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers groups the HTTP handlers mounted under /api/v1. A nil handler
// leaves its routes unmounted.
type Handlers struct {
	Session      *auth.Middleware
	Transactions *transaction.Handler
	Categories   *category.Handler
	Budgets      *budget.Handler
	Goals        *goal.Handler
	Dashboard    *dashboard.Handler
	Export       *export.Handler
	Users        *user.Handler
}

type RouterConfig struct {
	AllowedOrigins []string
	OpenAPI        []byte
}

func RegisterAllRoutes(router *chi.Mux, cfg RouterConfig, health *HealthHandler, h Handlers, logger *slog.Logger) {
	// Apply global middleware
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	if len(cfg.OpenAPI) > 0 {
		router.Get(swagger.SpecPath, swagger.SpecHandler(cfg.OpenAPI))
		router.Handle("/swagger/*", swagger.Handler())
	}

	// Mount API under /api/v1 to match the OpenAPI server url
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.healthCheckHandler)
		r.Get("/ping", health.pingHandler)

		if h.Session == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Session.RequireSession)

			if h.Users != nil {
				pr.Get("/users/me", h.Users.GetCurrentUser)
			}

			pr.Route("/transactions", func(tr chi.Router) {
				if h.Export != nil {
					tr.Get("/export", h.Export.ExportTransactions)
				}
				if h.Transactions != nil {
					tr.Get("/", h.Transactions.GetTransactions)
					tr.Post("/", h.Transactions.CreateTransaction)
					tr.Get("/{id}", h.Transactions.GetTransaction)
					tr.Put("/{id}", h.Transactions.UpdateTransaction)
					tr.Delete("/{id}", h.Transactions.DeleteTransaction)
				}
			})

			if h.Categories != nil {
				pr.Route("/categories", func(cr chi.Router) {
					cr.Get("/", h.Categories.GetCategories)
					cr.Post("/", h.Categories.CreateCategory)
					cr.Put("/{id}", h.Categories.RenameCategory)
					cr.Delete("/{id}", h.Categories.DeleteCategory)
				})
			}

			if h.Budgets != nil {
				pr.Route("/budgets", func(br chi.Router) {
					br.Get("/", h.Budgets.GetBudgets)
					br.Put("/", h.Budgets.UpsertBudget)
					br.Get("/usage", h.Budgets.GetBudgetUsage)
					br.Delete("/{id}", h.Budgets.DeleteBudget)
				})
			}

			if h.Goals != nil {
				pr.Route("/goals", func(gr chi.Router) {
					gr.Get("/", h.Goals.GetGoals)
					gr.Post("/", h.Goals.CreateGoal)
					gr.Get("/progress", h.Goals.GetGoalProgress)
					gr.Post("/{id}/adjust", h.Goals.AdjustGoal)
					gr.Delete("/{id}", h.Goals.DeleteGoal)
				})
			}

			if h.Dashboard != nil {
				pr.Get("/dashboard", h.Dashboard.GetDashboard)
			}
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"NOT_FOUND","code":"ROUTE_NOT_FOUND","message":"Route not found"}}`))
	})
}
