package services

import (
	"context"
	"fmt"

	"finanzas/internal/amortization"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/records"
	"finanzas/internal/recurrence"
)

// MarkerAccrualLastRun stores the date of the last accrual run.
const MarkerAccrualLastRun = "accrual.lastRunDate"

// AccrualReport summarizes one accrual run.
type AccrualReport struct {
	Skipped        bool `json:"skipped"`
	Executions     int  `json:"executions"`
	StatusChanges  int  `json:"statusChanges"`
	ExpensesFailed int  `json:"expensesFailed"`
}

// AccrualService runs the daily bookkeeping: it executes auto-debit fixed
// expenses whose day has come and refreshes debt status. It runs at most
// once per calendar day.
type AccrualService struct {
	store       records.Set
	invalidator Invalidator
	today       Clock
	logger      *log.Logger
}

func NewAccrualService(store records.Set, inv Invalidator, today Clock, logger *log.Logger) *AccrualService {
	if inv == nil {
		inv = nopInvalidator{}
	}
	if today == nil {
		today = SystemClock(nil)
	}
	return &AccrualService{
		store:       store,
		invalidator: inv,
		today:       today,
		logger:      logger.WithComponent(log.ComponentAccrual),
	}
}

// Run performs today's accrual unless it already ran today. A failure on a
// single expense is logged and counted; store failures abort the run
// without recording it.
func (s *AccrualService) Run(ctx context.Context) (AccrualReport, error) {
	today := s.today()

	last, _, err := s.store.Markers.Marker(ctx, MarkerAccrualLastRun)
	if err != nil {
		return AccrualReport{}, fmt.Errorf("read last accrual run: %w", err)
	}
	if !recurrence.ShouldRunToday(last, today) {
		s.logger.DebugContext(ctx, "Accrual already ran today", "last_run", last)
		return AccrualReport{Skipped: true}, nil
	}

	var report AccrualReport
	expenses, err := s.store.FixedExpenses.GetAll(ctx)
	if err != nil {
		return report, fmt.Errorf("list fixed expenses: %w", err)
	}
	for _, fe := range expenses {
		if !recurrence.DueForAutoDebit(fe, today) {
			continue
		}
		ym := core.YearMonthOf(today)
		fe = recurrence.WithExecution(fe, core.Execution{
			YearMonth:  ym,
			Date:       recurrence.ScheduledDate(fe, ym),
			AmountPaid: fe.Amount,
		})
		if err := s.store.FixedExpenses.Put(ctx, fe); err != nil {
			report.ExpensesFailed++
			s.logger.ErrorContext(ctx, "Failed to record auto-debit execution",
				log.FieldItemID, fe.ID, log.FieldError, err)
			continue
		}
		report.Executions++
		s.logger.InfoContext(ctx, "Auto-debit executed",
			log.FieldItemID, fe.ID,
			log.FieldYearMonth, ym.String(),
			log.FieldAmount, fe.Amount)
	}

	debts, err := s.store.Debts.GetAll(ctx)
	if err != nil {
		return report, fmt.Errorf("list debts: %w", err)
	}
	for _, d := range debts {
		status := amortization.RefreshStatus(d, today)
		if status == d.Status {
			continue
		}
		if _, err := s.store.Debts.Update(ctx, d.ID, map[string]any{"status": string(status)}); err != nil {
			return report, fmt.Errorf("update debt %s status: %w", d.ID, err)
		}
		report.StatusChanges++
		s.logger.InfoContext(ctx, "Debt status changed",
			log.FieldDebtID, d.ID,
			"from", d.Status,
			"to", status)
	}

	if err := s.store.Markers.SetMarker(ctx, MarkerAccrualLastRun, today.String()); err != nil {
		return report, fmt.Errorf("record accrual run: %w", err)
	}
	if report.Executions > 0 || report.StatusChanges > 0 {
		s.invalidator.Invalidate(ctx)
	}

	s.logger.InfoContext(ctx, "Accrual run complete",
		"executions", report.Executions,
		"status_changes", report.StatusChanges,
		"failed", report.ExpensesFailed,
		"date", today.String())
	return report, nil
}
