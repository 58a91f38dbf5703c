package rest

import (
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/internal/transport/middleware"
	"github.com/frahmantamala/expense-tracker/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Routes struct {
	Expense        *expense.Handler
	Category       *category.Handler
	Health         *HealthHandler
	AllowedOrigins []string
	RequestTimeout time.Duration
	OpenAPISpec    []byte
}

func RegisterAllRoutes(router *chi.Mux, routes Routes, logger *slog.Logger) {
	base := transport.NewBaseHandler(logger)

	router.Use(middleware.CORS(routes.AllowedOrigins))
	router.Use(middleware.RequestID(logger))
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware)
	if routes.RequestTimeout > 0 {
		router.Use(chiMiddleware.Timeout(routes.RequestTimeout))
	}

	router.NotFound(base.NotFound)
	router.MethodNotAllowed(base.MethodNotAllowed)

	if routes.OpenAPISpec != nil {
		router.Get(swagger.SpecPath, swagger.SpecHandler(routes.OpenAPISpec))
		router.Handle("/swagger/*", swagger.Handler())
	}

	// Mount API under /api/v1 to match the OpenAPI server url
	router.Route("/api/v1", func(r chi.Router) {
		if routes.Health != nil {
			r.Get("/health", routes.Health.healthCheckHandler)
			r.Get("/ping", routes.Health.pingHandler)
		}

		if routes.Category != nil {
			r.Get("/categories", routes.Category.GetCategories)
		}

		if routes.Expense != nil {
			r.Route("/expenses", func(er chi.Router) {
				er.Post("/", routes.Expense.CreateExpense)
				er.Get("/", routes.Expense.ListExpenses)
				er.Get("/summary", routes.Expense.GetSummary)
			})
		}
	})
}
