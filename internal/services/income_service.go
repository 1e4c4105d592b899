package services

import (
	"context"
	"fmt"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/records"
)

// IncomeInput creates RepeatMonths consecutive income rows starting at
// YearMonth. Zero means one.
type IncomeInput struct {
	core.Income
	RepeatMonths int `json:"repeatMonths,omitempty"`
}

// Receipt marks an income as received.
type Receipt struct {
	Date       core.Date `json:"date"`
	Amount     float64   `json:"amount,omitempty"`
	MovementID string    `json:"movementId,omitempty"`
}

type IncomeService struct {
	store       records.Set
	invalidator Invalidator
	today       Clock
	logger      *log.Logger
}

func NewIncomeService(store records.Set, inv Invalidator, today Clock, logger *log.Logger) *IncomeService {
	if inv == nil {
		inv = nopInvalidator{}
	}
	if today == nil {
		today = SystemClock(nil)
	}
	return &IncomeService{
		store:       store,
		invalidator: inv,
		today:       today,
		logger:      logger.WithComponent(log.ComponentItems),
	}
}

func (s *IncomeService) IncomesFor(ctx context.Context, ym core.YearMonth) ([]core.Income, error) {
	return s.store.Incomes.ListBy(ctx, records.IndexYearMonth, ym.String())
}

// CreateIncome stores one row per month. Each row is independent: marking
// one received does not touch the others.
func (s *IncomeService) CreateIncome(ctx context.Context, in IncomeInput) ([]core.Income, error) {
	n := in.RepeatMonths
	if n < 1 {
		n = 1
	}
	base := in.Income
	if base.YearMonth.IsZero() {
		base.YearMonth = core.YearMonthOf(s.today())
	}
	if base.Status == "" {
		base.Status = core.IncomeExpected
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}

	out := make([]core.Income, 0, n)
	for i := 0; i < n; i++ {
		row := base
		row.YearMonth = base.YearMonth.AddMonths(i)
		if i > 0 || row.ID == "" {
			row.ID = records.NewID()
		}
		if i > 0 {
			row.Status = core.IncomeExpected
			row.EffectiveDate = core.Date{}
			row.MovementID = ""
		}
		if err := s.store.Incomes.Put(ctx, row); err != nil {
			return out, fmt.Errorf("save income: %w", err)
		}
		out = append(out, row)
	}

	s.logger.InfoContext(ctx, "Income created",
		log.FieldItemID, out[0].ID,
		log.FieldItemKind, string(KindIncome),
		log.FieldYearMonth, base.YearMonth.String(),
		log.FieldAmount, base.Amount,
		"months", n,
		log.FieldOperation, log.OpCreate)
	s.invalidator.Invalidate(ctx)
	return out, nil
}

func (s *IncomeService) DeleteIncome(ctx context.Context, id string) error {
	if err := s.store.Incomes.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Income deleted", log.FieldItemID, id, log.FieldOperation, log.OpDelete)
	s.invalidator.Invalidate(ctx)
	return nil
}

// MarkReceived records the receipt of an income. The date defaults to today
// and a positive amount replaces the expected one.
func (s *IncomeService) MarkReceived(ctx context.Context, id string, r Receipt) (core.Income, error) {
	in, err := s.store.Incomes.GetByID(ctx, id)
	if err != nil {
		return core.Income{}, err
	}
	if r.Amount < 0 {
		return core.Income{}, core.ErrInvalidAmount
	}
	if r.Date.IsZero() {
		r.Date = s.today()
	}
	in.Status = core.IncomeReceived
	in.EffectiveDate = r.Date
	in.MovementID = r.MovementID
	if r.Amount > 0 {
		in.Amount = r.Amount
	}
	if err := s.store.Incomes.Put(ctx, in); err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}

	s.logger.InfoContext(ctx, "Income received",
		log.FieldItemID, id,
		log.FieldYearMonth, in.YearMonth.String(),
		log.FieldAmount, in.Amount,
		log.FieldOperation, log.OpPay)
	s.invalidator.Invalidate(ctx)
	return in, nil
}
