package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/fx"
	"finanzas/internal/kpi"
	"finanzas/internal/log"
	"finanzas/internal/records"
)

// MonthService builds the KPI snapshot of a month. Snapshots are cached by
// month and the whole cache is dropped on any mutation.
type MonthService struct {
	store      records.Set
	rates      fx.Provider
	currencies core.CurrencyPair
	snapshots  cache.Cache[core.YearMonth, kpi.Snapshot]
	logger     *log.Logger
}

// NewMonthService creates the month service. rates and snapshots may be nil.
func NewMonthService(store records.Set, rates fx.Provider, currencies core.CurrencyPair, snapshots cache.Cache[core.YearMonth, kpi.Snapshot], logger *log.Logger) *MonthService {
	if rates == nil {
		rates = fx.None{}
	}
	return &MonthService{
		store:      store,
		rates:      rates,
		currencies: currencies,
		snapshots:  snapshots,
		logger:     logger.WithComponent(log.ComponentMonths),
	}
}

// Invalidate drops every cached snapshot.
func (s *MonthService) Invalidate(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	s.snapshots.Purge()
	s.logger.DebugContext(ctx, "KPI snapshots invalidated")
}

// Kpis returns the snapshot of ym.
func (s *MonthService) Kpis(ctx context.Context, ym core.YearMonth) (kpi.Snapshot, error) {
	if s.snapshots != nil {
		if snap, ok := s.snapshots.Get(ym); ok {
			return snap, nil
		}
	}

	in, err := s.LoadInputs(ctx, ym)
	if err != nil {
		return kpi.Snapshot{}, err
	}
	snap := kpi.ComputeMonthlyKpis(in)

	if s.snapshots != nil {
		s.snapshots.Set(ym, snap)
	}
	s.logger.DebugContext(ctx, "KPI snapshot computed",
		log.FieldYearMonth, ym.String(),
		"fx_available", in.Rate != nil)
	return snap, nil
}

// LoadInputs reads everything the aggregator needs for ym concurrently.
// An unavailable or failing rate source leaves Rate nil.
func (s *MonthService) LoadInputs(ctx context.Context, ym core.YearMonth) (kpi.Inputs, error) {
	in := kpi.Inputs{Month: ym, Currencies: s.currencies}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		in.IncomesForMonth, err = s.store.Incomes.ListBy(gctx, records.IndexYearMonth, ym.String())
		return wrap("incomes for month", err)
	})
	g.Go(func() (err error) {
		in.AllIncomes, err = s.store.Incomes.GetAll(gctx)
		return wrap("incomes", err)
	})
	g.Go(func() (err error) {
		in.FixedExpenses, err = s.store.FixedExpenses.GetAll(gctx)
		return wrap("fixed expenses", err)
	})
	g.Go(func() (err error) {
		in.ConsumptionsClosing, err = s.store.Consumptions.ListBy(gctx, records.IndexClosingYM, ym.String())
		return wrap("consumptions", err)
	})
	g.Go(func() (err error) {
		in.StatementsDueThisMonth, err = s.store.Statements.ListBy(gctx, records.IndexDueYM, ym.String())
		return wrap("statements due", err)
	})
	g.Go(func() (err error) {
		in.StatementsDueNextMonth, err = s.store.Statements.ListBy(gctx, records.IndexDueYM, ym.AddMonths(1).String())
		return wrap("statements due next month", err)
	})
	g.Go(func() (err error) {
		in.AllStatements, err = s.store.Statements.GetAll(gctx)
		return wrap("statements", err)
	})
	g.Go(func() (err error) {
		in.Debts, err = s.store.Debts.GetAll(gctx)
		return wrap("debts", err)
	})
	g.Go(func() (err error) {
		in.Budgets, err = s.store.Budgets.ListBy(gctx, records.IndexYearMonth, ym.String())
		return wrap("budgets", err)
	})
	g.Go(func() error {
		rate, ok, err := s.rates.Rate(gctx)
		if err != nil {
			s.logger.WarnContext(gctx, "Exchange rate unavailable", log.FieldError, err)
			return nil
		}
		if ok {
			in.Rate = &rate
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return kpi.Inputs{}, err
	}
	return in, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	return nil
}
