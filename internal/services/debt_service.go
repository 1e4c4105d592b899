package services

import (
	"context"
	"fmt"

	"finanzas/internal/amortization"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/migration"
	"finanzas/internal/records"
)

// ScheduleEntry is one installment of a debt.
type ScheduleEntry struct {
	Number    int            `json:"number"`
	YearMonth core.YearMonth `json:"yearMonth"`
	DueDate   core.Date      `json:"dueDate"`
	Amount    float64        `json:"amount"`
	Paid      float64        `json:"paid"`
}

type DebtService struct {
	store       records.Set
	invalidator Invalidator
	today       Clock
	logger      *log.Logger
}

func NewDebtService(store records.Set, inv Invalidator, today Clock, logger *log.Logger) *DebtService {
	if inv == nil {
		inv = nopInvalidator{}
	}
	if today == nil {
		today = SystemClock(nil)
	}
	return &DebtService{
		store:       store,
		invalidator: inv,
		today:       today,
		logger:      logger.WithComponent(log.ComponentDebts),
	}
}

func (s *DebtService) ListDebts(ctx context.Context) ([]core.Debt, error) {
	return s.store.Debts.GetAll(ctx)
}

func (s *DebtService) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	return s.store.Debts.GetByID(ctx, id)
}

// CreateDebt stores a new debt. The start month defaults to the current
// month, the due day to the first due date or today, and the remaining
// amount to the total.
func (s *DebtService) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	today := s.today()
	if d.ID == "" {
		d.ID = records.NewID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = today
	}
	if d.StartYearMonth.IsZero() && d.FirstDueDate.IsZero() {
		d.StartYearMonth = core.YearMonthOf(today)
	}
	if d.CurrentInstallment < 1 {
		d.CurrentInstallment = 1
	}
	if d.RemainingAmount <= 0 {
		d.RemainingAmount = d.TotalAmount
	}
	d = migration.NormalizeDebt(d)
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	d.Status = amortization.RefreshStatus(d, today)

	if err := s.store.Debts.Put(ctx, d); err != nil {
		return core.Debt{}, fmt.Errorf("save debt: %w", err)
	}
	s.logger.InfoContext(ctx, "Debt created",
		log.FieldDebtID, d.ID,
		log.FieldAmount, d.TotalAmount,
		log.FieldInstallments, d.InstallmentsCount,
		log.FieldOperation, log.OpCreate)
	s.invalidator.Invalidate(ctx)
	return d, nil
}

func (s *DebtService) DeleteDebt(ctx context.Context, id string) error {
	if err := s.store.Debts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Debt deleted", log.FieldDebtID, id, log.FieldOperation, log.OpDelete)
	s.invalidator.Invalidate(ctx)
	return nil
}

// RegisterPayment records a discrete payment against a debt.
func (s *DebtService) RegisterPayment(ctx context.Context, id string, p core.DebtPayment) (core.Debt, error) {
	if p.Date.IsZero() {
		p.Date = s.today()
	}
	return s.mutate(ctx, id, "Debt payment registered", p.Amount, func(d core.Debt) (core.Debt, error) {
		return amortization.RegisterPayment(d, p)
	})
}

// ApplyPrepayment applies an early payment with one of the two strategies.
func (s *DebtService) ApplyPrepayment(ctx context.Context, id string, p core.Prepayment) (core.Debt, error) {
	if p.Date.IsZero() {
		p.Date = s.today()
	}
	return s.mutate(ctx, id, "Debt prepayment applied", p.Amount, func(d core.Debt) (core.Debt, error) {
		return amortization.ApplyPrepayment(d, p)
	})
}

// Schedule lists every installment of a debt with what was paid in its month.
func (s *DebtService) Schedule(ctx context.Context, id string) ([]ScheduleEntry, error) {
	d, err := s.store.Debts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.StartYearMonth.IsZero() {
		return nil, nil
	}
	out := make([]ScheduleEntry, 0, d.InstallmentsCount)
	for i := 0; i < d.InstallmentsCount; i++ {
		ym := d.StartYearMonth.AddMonths(i)
		out = append(out, ScheduleEntry{
			Number:    i + 1,
			YearMonth: ym,
			DueDate:   amortization.DueDate(d, ym),
			Amount:    amortization.InstallmentAmount(d),
			Paid:      amortization.PaymentsInMonth(d, ym),
		})
	}
	return out, nil
}

func (s *DebtService) mutate(ctx context.Context, id, msg string, amount float64, apply func(core.Debt) (core.Debt, error)) (core.Debt, error) {
	d, err := s.store.Debts.GetByID(ctx, id)
	if err != nil {
		return core.Debt{}, err
	}
	d, err = apply(d)
	if err != nil {
		return core.Debt{}, err
	}
	d.Status = amortization.RefreshStatus(d, s.today())
	if err := s.store.Debts.Put(ctx, d); err != nil {
		return core.Debt{}, fmt.Errorf("save debt: %w", err)
	}

	s.logger.InfoContext(ctx, msg,
		log.FieldDebtID, id,
		log.FieldAmount, amount,
		"remaining", d.RemainingAmount,
		"status", d.Status,
		log.FieldOperation, log.OpPay)
	s.invalidator.Invalidate(ctx)
	return d, nil
}
