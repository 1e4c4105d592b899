package services

import (
	"context"
	"testing"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/records/memory"
	"finanzas/internal/recurrence"
)

func TestAccrualService_Run(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	today := date("2024-03-15")
	clock := func() core.Date { return today }

	expenses := []core.FixedExpense{
		{ID: "gym", Name: "Gimnasio", Amount: 30, DueDay: 10, Recurrence: core.Monthly, StartYearMonth: ym("2024-01"), AutoDebit: true},
		{ID: "rent", Name: "Alquiler", Amount: 500, DueDay: 20, Recurrence: core.Monthly, StartYearMonth: ym("2024-01"), AutoDebit: true},
		{ID: "manual", Name: "Plomero", Amount: 80, DueDay: 1, Recurrence: core.Monthly, StartYearMonth: ym("2024-01")},
	}
	for _, fe := range expenses {
		store.FixedExpenses.Put(ctx, fe)
	}
	store.Debts.Put(ctx, core.Debt{
		ID: "loan", Name: "Prestamo", TotalAmount: 1200, InstallmentsCount: 12,
		DueDay: 10, StartYearMonth: ym("2024-01"), Status: core.DebtActive,
	})
	store.Debts.Put(ctx, core.Debt{
		ID: "old", Name: "Viejo", TotalAmount: 300, InstallmentsCount: 3,
		DueDay: 10, StartYearMonth: ym("2023-01"), Status: core.DebtActive,
	})

	inv := &countingInvalidator{}
	svc := NewAccrualService(store, inv, clock, log.Discard())

	report, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Skipped || report.Executions != 1 || report.StatusChanges != 2 {
		t.Errorf("report = %+v, want 1 execution and 2 status changes", report)
	}
	if inv.count() != 1 {
		t.Errorf("invalidations = %d, want 1", inv.count())
	}

	gym, _ := store.FixedExpenses.GetByID(ctx, "gym")
	if e, ok := recurrence.ExecutionForMonth(gym, ym("2024-03")); !ok || e.Date.String() != "2024-03-10" || e.AmountPaid != 30 {
		t.Errorf("gym execution = %+v, %v", e, ok)
	}
	rent, _ := store.FixedExpenses.GetByID(ctx, "rent")
	if len(rent.Executions) != 0 {
		t.Errorf("rent should not execute before its day: %+v", rent.Executions)
	}
	manual, _ := store.FixedExpenses.GetByID(ctx, "manual")
	if len(manual.Executions) != 0 {
		t.Errorf("manual expense should never auto-execute: %+v", manual.Executions)
	}

	loan, _ := store.Debts.GetByID(ctx, "loan")
	old, _ := store.Debts.GetByID(ctx, "old")
	if loan.Status != core.DebtOverdue || old.Status != core.DebtCompleted {
		t.Errorf("statuses = %s/%s, want overdue/completed", loan.Status, old.Status)
	}

	last, ok, _ := store.Markers.Marker(ctx, MarkerAccrualLastRun)
	if !ok || last != "2024-03-15" {
		t.Errorf("last run marker = %q, %v", last, ok)
	}

	// Same day: skipped.
	report, _ = svc.Run(ctx)
	if !report.Skipped {
		t.Errorf("second run the same day should be skipped: %+v", report)
	}

	// Later in the month the rent comes due; the gym is not executed twice.
	today = date("2024-03-21")
	report, err = svc.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Executions != 1 || report.StatusChanges != 0 {
		t.Errorf("report = %+v, want only the rent", report)
	}
	gym, _ = store.FixedExpenses.GetByID(ctx, "gym")
	if len(gym.Executions) != 1 {
		t.Errorf("gym executions = %d, want 1", len(gym.Executions))
	}
}
