package services

import (
	"context"
	"fmt"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/records"
	"finanzas/internal/recurrence"
)

// AdHocExpense is a one-off payment already made.
type AdHocExpense struct {
	Name       string    `json:"name"`
	Amount     float64   `json:"amount"`
	Date       core.Date `json:"date"`
	Category   string    `json:"category,omitempty"`
	MovementID string    `json:"movementId,omitempty"`
}

// ExpenseService manages fixed expenses and their monthly executions.
type ExpenseService struct {
	store       records.Set
	invalidator Invalidator
	today       Clock
	logger      *log.Logger
}

func NewExpenseService(store records.Set, inv Invalidator, today Clock, logger *log.Logger) *ExpenseService {
	if inv == nil {
		inv = nopInvalidator{}
	}
	if today == nil {
		today = SystemClock(nil)
	}
	return &ExpenseService{
		store:       store,
		invalidator: inv,
		today:       today,
		logger:      logger.WithComponent(log.ComponentItems),
	}
}

func (s *ExpenseService) ListFixedExpenses(ctx context.Context) ([]core.FixedExpense, error) {
	return s.store.FixedExpenses.GetAll(ctx)
}

// CreateFixedExpense stores a fixed expense. Recurrence defaults to MONTHLY
// and the start month to the current month.
func (s *ExpenseService) CreateFixedExpense(ctx context.Context, fe core.FixedExpense) (core.FixedExpense, error) {
	if fe.ID == "" {
		fe.ID = records.NewID()
	}
	fe.Recurrence = core.Recurrence(strings.ToUpper(strings.TrimSpace(string(fe.Recurrence))))
	if fe.Recurrence == "" {
		fe.Recurrence = core.Monthly
	}
	if fe.StartYearMonth.IsZero() {
		fe.StartYearMonth = core.YearMonthOf(s.today())
	}
	if err := fe.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	if err := s.store.FixedExpenses.Put(ctx, fe); err != nil {
		return core.FixedExpense{}, fmt.Errorf("save fixed expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Fixed expense created",
		log.FieldItemID, fe.ID,
		log.FieldItemKind, string(KindFixedExpense),
		log.FieldAmount, fe.Amount,
		log.FieldOperation, log.OpCreate)
	s.invalidator.Invalidate(ctx)
	return fe, nil
}

func (s *ExpenseService) DeleteFixedExpense(ctx context.Context, id string) error {
	if err := s.store.FixedExpenses.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Fixed expense deleted", log.FieldItemID, id, log.FieldOperation, log.OpDelete)
	s.invalidator.Invalidate(ctx)
	return nil
}

// RecordExecution marks the expense as paid for a month, replacing any
// earlier record for that month. Missing fields default to the scheduled
// date of the month and the expense amount.
func (s *ExpenseService) RecordExecution(ctx context.Context, id string, e core.Execution) (core.FixedExpense, error) {
	fe, err := s.store.FixedExpenses.GetByID(ctx, id)
	if err != nil {
		return core.FixedExpense{}, err
	}
	if e.YearMonth.IsZero() {
		if e.Date.IsZero() {
			e.YearMonth = core.YearMonthOf(s.today())
		} else {
			e.YearMonth = core.YearMonthOf(e.Date)
		}
	}
	if e.Date.IsZero() {
		e.Date = recurrence.ScheduledDate(fe, e.YearMonth)
	}
	if e.AmountPaid < 0 {
		return core.FixedExpense{}, core.ErrInvalidAmount
	}
	if e.AmountPaid == 0 {
		e.AmountPaid = fe.Amount
	}

	fe = recurrence.WithExecution(fe, e)
	if err := s.store.FixedExpenses.Put(ctx, fe); err != nil {
		return core.FixedExpense{}, fmt.Errorf("save fixed expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Fixed expense executed",
		log.FieldItemID, id,
		log.FieldYearMonth, e.YearMonth.String(),
		log.FieldAmount, e.AmountPaid,
		log.FieldOperation, log.OpPay)
	s.invalidator.Invalidate(ctx)
	return fe, nil
}

// AddAdHocExpense stores a one-off payment as a ONCE fixed expense that is
// already executed on its date.
func (s *ExpenseService) AddAdHocExpense(ctx context.Context, in AdHocExpense) (core.FixedExpense, error) {
	if in.Date.IsZero() {
		in.Date = s.today()
	}
	ym := core.YearMonthOf(in.Date)
	fe := core.FixedExpense{
		Name:           strings.TrimSpace(in.Name),
		Amount:         in.Amount,
		DueDay:         in.Date.Day(),
		Category:       in.Category,
		Recurrence:     core.Once,
		StartYearMonth: ym,
		EndYearMonth:   ym,
		Executions: []core.Execution{{
			YearMonth:  ym,
			Date:       in.Date,
			AmountPaid: in.Amount,
			MovementID: in.MovementID,
		}},
	}
	return s.CreateFixedExpense(ctx, fe)
}
