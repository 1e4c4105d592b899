package services

import (
	"context"
	"errors"
	"testing"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/records/memory"
)

func TestDebtService_CreateDebt(t *testing.T) {
	ctx := context.Background()
	svc := NewDebtService(memory.New(), nil, fixedClock(date("2024-03-15")), log.Discard())

	d, err := svc.CreateDebt(ctx, core.Debt{
		Name:              "Prestamo auto",
		Category:          "prestamo",
		TotalAmount:       120000,
		InstallmentsCount: 12,
		DueDay:            20,
	})
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}
	if d.Category != core.CategoryBankLoan {
		t.Errorf("Category = %s, want bank_loan", d.Category)
	}
	if d.StartYearMonth != ym("2024-03") {
		t.Errorf("StartYearMonth = %s, want 2024-03", d.StartYearMonth)
	}
	if d.InstallmentAmount != 10000 || d.RemainingAmount != 120000 {
		t.Errorf("InstallmentAmount = %v RemainingAmount = %v", d.InstallmentAmount, d.RemainingAmount)
	}
	if d.Status != core.DebtActive {
		t.Errorf("Status = %s, want active", d.Status)
	}

	if _, err := svc.CreateDebt(ctx, core.Debt{Name: "x", TotalAmount: 10}); !errors.Is(err, core.ErrInvalidInstallments) {
		t.Errorf("CreateDebt(no count) error = %v, want ErrInvalidInstallments", err)
	}
}

func TestDebtService_CreateDebtOverdue(t *testing.T) {
	svc := NewDebtService(memory.New(), nil, fixedClock(date("2024-03-15")), log.Discard())
	d, err := svc.CreateDebt(context.Background(), core.Debt{
		Name: "Tarjeta familiar", TotalAmount: 3000, InstallmentsCount: 3, DueDay: 10,
	})
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}
	if d.Status != core.DebtOverdue {
		t.Errorf("Status = %s, want overdue when the due day already passed", d.Status)
	}
}

func TestDebtService_Payments(t *testing.T) {
	ctx := context.Background()
	inv := &countingInvalidator{}
	svc := NewDebtService(memory.New(), inv, fixedClock(date("2024-03-15")), log.Discard())

	d, _ := svc.CreateDebt(ctx, core.Debt{
		Name: "Prestamo", TotalAmount: 120000, InstallmentsCount: 12, DueDay: 10,
		StartYearMonth: ym("2024-01"),
	})

	d, err := svc.RegisterPayment(ctx, d.ID, core.DebtPayment{Amount: 10000})
	if err != nil {
		t.Fatalf("RegisterPayment() error = %v", err)
	}
	if d.RemainingAmount != 110000 {
		t.Errorf("RemainingAmount = %v, want 110000", d.RemainingAmount)
	}
	if d.Status != core.DebtActive {
		t.Errorf("Status = %s, want active after paying this month", d.Status)
	}
	if len(d.Payments) != 1 || !d.Payments[0].Date.Equal(date("2024-03-15").Time) {
		t.Errorf("Payments = %+v, want one dated today", d.Payments)
	}

	d, err = svc.ApplyPrepayment(ctx, d.ID, core.Prepayment{Amount: 30000, Strategy: core.ReduceCount})
	if err != nil {
		t.Fatalf("ApplyPrepayment() error = %v", err)
	}
	if d.InstallmentsCount != 9 || d.RemainingAmount != 80000 {
		t.Errorf("after prepayment count = %d remaining = %v", d.InstallmentsCount, d.RemainingAmount)
	}

	if _, err := svc.ApplyPrepayment(ctx, d.ID, core.Prepayment{Amount: 1, Strategy: "bogus"}); !errors.Is(err, core.ErrInvalidStrategy) {
		t.Errorf("ApplyPrepayment(bogus) error = %v", err)
	}
	if _, err := svc.RegisterPayment(ctx, "missing", core.DebtPayment{Amount: 1}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("RegisterPayment(missing) error = %v", err)
	}
	if inv.count() != 3 {
		t.Errorf("invalidations = %d, want 3", inv.count())
	}
}

func TestDebtService_Schedule(t *testing.T) {
	ctx := context.Background()
	svc := NewDebtService(memory.New(), nil, fixedClock(date("2024-01-02")), log.Discard())
	d, _ := svc.CreateDebt(ctx, core.Debt{
		Name: "Celular", TotalAmount: 900, InstallmentsCount: 3, DueDay: 31,
		StartYearMonth: ym("2024-01"),
	})

	sched, err := svc.Schedule(ctx, d.ID)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	want := []string{"2024-01-31", "2024-02-29", "2024-03-31"}
	if len(sched) != len(want) {
		t.Fatalf("Schedule() len = %d", len(sched))
	}
	for i, e := range sched {
		if e.Number != i+1 || e.Amount != 300 || e.DueDate.String() != want[i] {
			t.Errorf("entry %d = %+v", i, e)
		}
	}
}
