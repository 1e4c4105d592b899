package cli

import (
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/fx"
	"finanzas/internal/kpi"
	"finanzas/internal/log"
	"finanzas/internal/records"
	"finanzas/internal/services"
)

// Services is the wired domain layer shared by both binaries.
type Services struct {
	Cards    *services.CardService
	Debts    *services.DebtService
	Expenses *services.ExpenseService
	Incomes  *services.IncomeService
	Budgets  *services.BudgetService
	Items    *services.ItemService
	Months   *services.MonthService
	Accrual  *services.AccrualService
	Today    services.Clock
	Caches   *cache.Manager
}

// BuildServices wires the services over store. publisher may be nil when
// messaging is disabled. Every mutation invalidates the KPI snapshot cache.
func BuildServices(cfg *config.Config, store records.Set, publisher services.RecomputePublisher, logger *log.Logger) (*Services, error) {
	rates, err := fx.New(cfg.FX(), logger)
	if err != nil {
		return nil, err
	}

	caches := cache.NewManager(logger)
	var snapshots cache.Cache[core.YearMonth, kpi.Snapshot]
	if cfg.KPICacheSize > 0 {
		lru := cache.NewLRUCache[core.YearMonth, kpi.Snapshot](cfg.KPICacheSize, cfg.KPICacheTTL)
		caches.Register(lru)
		snapshots = lru
	}
	caches.StartCleanup(time.Minute)

	today := services.SystemClock(cfg.Location())
	months := services.NewMonthService(store, rates, cfg.Currencies(), snapshots, logger)
	debts := services.NewDebtService(store, months, today, logger)
	expenses := services.NewExpenseService(store, months, today, logger)
	incomes := services.NewIncomeService(store, months, today, logger)
	budgets := services.NewBudgetService(store, months, today, logger)

	return &Services{
		Cards:    services.NewCardService(store, publisher, months, logger),
		Debts:    debts,
		Expenses: expenses,
		Incomes:  incomes,
		Budgets:  budgets,
		Items:    &services.ItemService{Debts: debts, Expenses: expenses, Incomes: incomes, Budgets: budgets},
		Months:   months,
		Accrual:  services.NewAccrualService(store, months, today, logger),
		Today:    today,
		Caches:   caches,
	}, nil
}
