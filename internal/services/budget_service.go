package services

import (
	"context"
	"fmt"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/records"
)

type BudgetService struct {
	store       records.Set
	invalidator Invalidator
	today       Clock
	logger      *log.Logger
}

func NewBudgetService(store records.Set, inv Invalidator, today Clock, logger *log.Logger) *BudgetService {
	if inv == nil {
		inv = nopInvalidator{}
	}
	if today == nil {
		today = SystemClock(nil)
	}
	return &BudgetService{
		store:       store,
		invalidator: inv,
		today:       today,
		logger:      logger.WithComponent(log.ComponentItems),
	}
}

func (s *BudgetService) BudgetsFor(ctx context.Context, ym core.YearMonth) ([]core.BudgetCategory, error) {
	return s.store.Budgets.ListBy(ctx, records.IndexYearMonth, ym.String())
}

func (s *BudgetService) CreateBudget(ctx context.Context, b core.BudgetCategory) (core.BudgetCategory, error) {
	if b.ID == "" {
		b.ID = records.NewID()
	}
	if b.YearMonth.IsZero() {
		b.YearMonth = core.YearMonthOf(s.today())
	}
	if err := b.Validate(); err != nil {
		return core.BudgetCategory{}, err
	}
	if err := s.store.Budgets.Put(ctx, b); err != nil {
		return core.BudgetCategory{}, fmt.Errorf("save budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget created",
		log.FieldItemID, b.ID,
		log.FieldItemKind, string(KindBudget),
		log.FieldYearMonth, b.YearMonth.String(),
		log.FieldAmount, b.Estimated,
		log.FieldOperation, log.OpCreate)
	s.invalidator.Invalidate(ctx)
	return b, nil
}

// AddSpent adds amount to the spent total. Negative amounts correct earlier
// entries but the total never drops below zero.
func (s *BudgetService) AddSpent(ctx context.Context, id string, amount float64) (core.BudgetCategory, error) {
	if amount == 0 {
		return core.BudgetCategory{}, core.ErrInvalidAmount
	}
	b, err := s.store.Budgets.GetByID(ctx, id)
	if err != nil {
		return core.BudgetCategory{}, err
	}
	b.Spent = max(0, b.Spent+amount)
	if err := s.store.Budgets.Put(ctx, b); err != nil {
		return core.BudgetCategory{}, fmt.Errorf("save budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget spend recorded",
		log.FieldItemID, id,
		log.FieldAmount, amount,
		"spent", b.Spent,
		log.FieldOperation, log.OpUpdate)
	s.invalidator.Invalidate(ctx)
	return b, nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, id string) error {
	if err := s.store.Budgets.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Budget deleted", log.FieldItemID, id, log.FieldOperation, log.OpDelete)
	s.invalidator.Invalidate(ctx)
	return nil
}
