package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/expense-tracker/api"
	"github.com/frahmantamala/expense-tracker/internal/category"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/expense/memory"
	"github.com/frahmantamala/expense-tracker/internal/transport"
	"github.com/frahmantamala/expense-tracker/internal/transport/rest"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Router", func() {
	var (
		router  *chi.Mux
		pingErr error
	)

	BeforeEach(func() {
		pingErr = nil
		lg := logger.Discard()
		base := transport.NewBaseHandler(lg)
		expenseService := expense.NewService(memory.NewExpenseRepository(), lg)
		categoryService := category.NewService([]string{"Food"}, expenseService, lg)

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Routes{
			Expense:  expense.NewHandler(base, expenseService),
			Category: category.NewHandler(base, categoryService),
			Health: rest.NewHealthHandler("memory", rest.PingFunc(func(context.Context) error {
				return pingErr
			})),
			AllowedOrigins: []string{"*"},
			OpenAPISpec:    api.OpenAPISpec,
		}, lg)
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("should create and list expenses under /api/v1", func() {
		body := `{"amount": 42, "category": "Food", "description": "Dinner", "date": "2025-01-15"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "router-key")
		Expect(serve(req).Code).To(Equal(http.StatusCreated))

		req = httptest.NewRequest(http.MethodPost, "/api/v1/expenses", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "router-key")
		Expect(serve(req).Code).To(Equal(http.StatusOK))

		rec := serve(httptest.NewRequest(http.MethodGet, "/api/v1/expenses?category=FOOD", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		var list []expense.ExpenseResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
		Expect(list).To(HaveLen(1))
		Expect(rec.Header().Get("X-Request-ID")).NotTo(BeEmpty())
	})

	It("should serve categories and the summary", func() {
		Expect(serve(httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)).Code).To(Equal(http.StatusOK))
		Expect(serve(httptest.NewRequest(http.MethodGet, "/api/v1/expenses/summary", nil)).Code).To(Equal(http.StatusOK))
	})

	It("should answer unknown routes with a JSON 404", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
	})

	It("should answer unsupported methods with a JSON 405", func() {
		rec := serve(httptest.NewRequest(http.MethodDelete, "/api/v1/expenses", nil))
		Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
	})

	It("should report health from the store ping", func() {
		Expect(serve(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)).Code).To(Equal(http.StatusOK))

		pingErr = errors.New("dial tcp: refused")
		rec := serve(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(rec.Body.String()).NotTo(ContainSubstring("refused"))

		Expect(serve(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)).Code).To(Equal(http.StatusOK))
	})

	It("should serve the OpenAPI document", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/openapi.yml", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("openapi: 3.0.3"))
	})
})
