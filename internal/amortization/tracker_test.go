package amortization

import (
	"testing"

	"finanzas/internal/core"
)

func ym(y, m int) core.YearMonth { return core.YearMonth{Year: y, Month: m} }

func loan() core.Debt {
	return core.Debt{
		ID:                "d1",
		Name:              "Car loan",
		Category:          core.CategoryBankLoan,
		TotalAmount:       120000,
		InstallmentsCount: 12,
		StartYearMonth:    ym(2024, 1),
		DueDay:            10,
		Status:            core.DebtActive,
	}
}

func TestInstallmentForMonth(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.Debt)
		target core.YearMonth
		want   float64
	}{
		{name: "sixth of twelve", target: ym(2024, 6), want: 10000},
		{name: "first month", target: ym(2024, 1), want: 10000},
		{name: "last month", target: ym(2024, 12), want: 10000},
		{name: "eighteenth month is out of range", target: ym(2025, 6), want: 0},
		{name: "before start", target: ym(2023, 12), want: 0},
		{
			name:   "explicit installment amount wins",
			mutate: func(d *core.Debt) { d.InstallmentAmount = 11000; d.MonthlyValue = 9000 },
			target: ym(2024, 3),
			want:   11000,
		},
		{
			name:   "monthly value before derived",
			mutate: func(d *core.Debt) { d.MonthlyValue = 9000 },
			target: ym(2024, 3),
			want:   9000,
		},
		{
			name:   "derived amount rounds up",
			mutate: func(d *core.Debt) { d.TotalAmount = 1000; d.InstallmentsCount = 3 },
			target: ym(2024, 2),
			want:   334,
		},
		{
			name:   "credit card placeholder",
			mutate: func(d *core.Debt) { d.Category = core.CategoryCreditCard },
			target: ym(2024, 6),
			want:   0,
		},
		{
			name:   "completed",
			mutate: func(d *core.Debt) { d.Status = core.DebtCompleted },
			target: ym(2024, 6),
			want:   0,
		},
		{
			name:   "paid",
			mutate: func(d *core.Debt) { d.Status = core.DebtPaid },
			target: ym(2024, 6),
			want:   0,
		},
		{
			name:   "stored current installment is ignored",
			mutate: func(d *core.Debt) { d.CurrentInstallment = 40 },
			target: ym(2024, 6),
			want:   10000,
		},
		{
			name:   "zero installments",
			mutate: func(d *core.Debt) { d.InstallmentsCount = 0 },
			target: ym(2024, 1),
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := loan()
			if tt.mutate != nil {
				tt.mutate(&d)
			}
			if got := InstallmentForMonth(d, tt.target); got != tt.want {
				t.Errorf("InstallmentForMonth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRangePredicates(t *testing.T) {
	d := loan()
	tests := []struct {
		target                    core.YearMonth
		before, inRange, afterEnd bool
		number                    int
	}{
		{ym(2023, 12), true, false, false, 0},
		{ym(2024, 1), false, true, false, 1},
		{ym(2024, 6), false, true, false, 6},
		{ym(2024, 12), false, true, false, 12},
		{ym(2025, 1), false, false, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			if got := IsBeforeStart(d, tt.target); got != tt.before {
				t.Errorf("IsBeforeStart() = %v", got)
			}
			if got := IsInRange(d, tt.target); got != tt.inRange {
				t.Errorf("IsInRange() = %v", got)
			}
			if got := IsAfterEnd(d, tt.target); got != tt.afterEnd {
				t.Errorf("IsAfterEnd() = %v", got)
			}
			if got := InstallmentNumber(d, tt.target); got != tt.number {
				t.Errorf("InstallmentNumber() = %d, want %d", got, tt.number)
			}
		})
	}
}

func TestPaymentsInMonth(t *testing.T) {
	d := loan()
	d.Payments = []core.DebtPayment{
		{Date: core.NewDate(2024, 2, 1), Amount: 5000},
		{Date: core.NewDate(2024, 2, 29), Amount: 5000},
		{Date: core.NewDate(2024, 3, 1), Amount: 7000},
	}
	if got := PaymentsInMonth(d, ym(2024, 2)); got != 10000 {
		t.Errorf("February = %v, want 10000", got)
	}
	if got := PaymentsInMonth(d, ym(2024, 3)); got != 7000 {
		t.Errorf("March = %v, want 7000", got)
	}
	// Payments ahead of the schedule still count.
	if got := PaymentsInMonth(d, ym(2023, 2)); got != 0 {
		t.Errorf("unrelated month = %v, want 0", got)
	}
}

func TestRefreshStatus(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.Debt)
		today  core.Date
		want   core.DebtStatus
	}{
		{name: "before due day", today: core.NewDate(2024, 3, 5), want: core.DebtActive},
		{name: "after due day unpaid", today: core.NewDate(2024, 3, 15), want: core.DebtOverdue},
		{
			name: "after due day paid",
			mutate: func(d *core.Debt) {
				d.Payments = []core.DebtPayment{{Date: core.NewDate(2024, 3, 9), Amount: 10000}}
			},
			today: core.NewDate(2024, 3, 15),
			want:  core.DebtActive,
		},
		{name: "after schedule", today: core.NewDate(2025, 2, 1), want: core.DebtCompleted},
		{
			name:   "paid stays paid",
			mutate: func(d *core.Debt) { d.Status = core.DebtPaid },
			today:  core.NewDate(2024, 3, 15),
			want:   core.DebtPaid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := loan()
			if tt.mutate != nil {
				tt.mutate(&d)
			}
			if got := RefreshStatus(d, tt.today); got != tt.want {
				t.Errorf("RefreshStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
