// Package http serves the JSON API: cards and their statements, planning
// items, monthly KPIs and the payment calendar feed.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"finanzas/internal/ics"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

// Services are the domain services the handlers call.
type Services struct {
	Cards    *services.CardService
	Debts    *services.DebtService
	Expenses *services.ExpenseService
	Incomes  *services.IncomeService
	Budgets  *services.BudgetService
	Items    *services.ItemService
	Months   *services.MonthService
	Calendar *ics.Feed
}

type Config struct {
	Addr               string
	RateLimitPerMinute int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
}

type Server struct {
	http.Server
	svc          Services
	limiter      *rateLimiter
	logger       *log.Logger
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, svc Services, logger *log.Logger) *Server {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:     svc,
		limiter: newRateLimiter(cfg.RateLimitPerMinute),
		logger:  logger,
		started: time.Now(),
	}
	go s.limiter.startCleanup(5 * time.Minute)

	r := mux.NewRouter()
	r.Use(traceMiddleware(logger), securityHeaders, s.limiter.middleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/calendar.ics", s.handleCalendar).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(log.ComponentMiddleware(log.ComponentAPI))
	api.HandleFunc("/months/{ym}/kpis", s.handleMonthKpis).Methods(http.MethodGet)
	api.HandleFunc("/months/{ym}/incomes", s.handleMonthIncomes).Methods(http.MethodGet)
	api.HandleFunc("/months/{ym}/budgets", s.handleMonthBudgets).Methods(http.MethodGet)

	api.HandleFunc("/cards", s.handleListCards).Methods(http.MethodGet)
	api.HandleFunc("/cards", s.handleCreateCard).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id}", s.handleGetCard).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id}", s.handleUpdateCard).Methods(http.MethodPut)
	api.HandleFunc("/cards/{id}", s.handleDeleteCard).Methods(http.MethodDelete)
	api.HandleFunc("/cards/{id}/periods/{ym}", s.handleCardPeriods).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id}/consumptions", s.handleListConsumptions).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id}/consumptions", s.handleAddConsumption).Methods(http.MethodPost)
	api.HandleFunc("/cards/{id}/statements", s.handleListStatements).Methods(http.MethodGet)
	api.HandleFunc("/cards/{id}/statements/{ym}/payment", s.handlePayStatement).Methods(http.MethodPost)
	api.HandleFunc("/consumptions/{id}", s.handleEditConsumption).Methods(http.MethodPut)
	api.HandleFunc("/consumptions/{id}", s.handleDeleteConsumption).Methods(http.MethodDelete)

	api.HandleFunc("/items", s.handleCreateItem).Methods(http.MethodPost)
	api.HandleFunc("/debts", s.handleListDebts).Methods(http.MethodGet)
	api.HandleFunc("/debts/{id}", s.handleDeleteDebt).Methods(http.MethodDelete)
	api.HandleFunc("/debts/{id}/schedule", s.handleDebtSchedule).Methods(http.MethodGet)
	api.HandleFunc("/debts/{id}/payments", s.handleDebtPayment).Methods(http.MethodPost)
	api.HandleFunc("/debts/{id}/prepayments", s.handleDebtPrepayment).Methods(http.MethodPost)
	api.HandleFunc("/fixed-expenses", s.handleListFixedExpenses).Methods(http.MethodGet)
	api.HandleFunc("/fixed-expenses/{id}", s.handleDeleteFixedExpense).Methods(http.MethodDelete)
	api.HandleFunc("/fixed-expenses/{id}/executions", s.handleRecordExecution).Methods(http.MethodPost)
	api.HandleFunc("/incomes/{id}", s.handleDeleteIncome).Methods(http.MethodDelete)
	api.HandleFunc("/incomes/{id}/receipt", s.handleIncomeReceipt).Methods(http.MethodPost)
	api.HandleFunc("/budgets/{id}", s.handleDeleteBudget).Methods(http.MethodDelete)
	api.HandleFunc("/budgets/{id}/spent", s.handleBudgetSpent).Methods(http.MethodPost)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}
