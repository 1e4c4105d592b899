// Package amortization tracks installment debts: which installment falls in a
// given month, what was actually paid in a month, and how prepayments reshape
// the remaining schedule.
//
// The installment schedule is derived from StartYearMonth and
// InstallmentsCount only. The stored CurrentInstallment is never consulted
// when answering per-month questions.
package amortization

import (
	"math"

	"finanzas/internal/core"
)

// InstallmentAmount resolves the per-installment amount of a debt:
// InstallmentAmount if positive, else MonthlyValue if positive, else
// ceil(TotalAmount / InstallmentsCount). A debt without installments
// resolves to 0.
func InstallmentAmount(d core.Debt) float64 {
	switch {
	case d.InstallmentAmount > 0:
		return d.InstallmentAmount
	case d.MonthlyValue > 0:
		return d.MonthlyValue
	case d.InstallmentsCount > 0 && d.TotalAmount > 0:
		return math.Ceil(d.TotalAmount / float64(d.InstallmentsCount))
	}
	return 0
}

// InstallmentNumber returns the 1-based installment that falls in target, or
// 0 when target is outside the schedule.
func InstallmentNumber(d core.Debt, target core.YearMonth) int {
	if !IsInRange(d, target) {
		return 0
	}
	return d.StartYearMonth.MonthsUntil(target) + 1
}

// InstallmentForMonth returns the amount scheduled for target. It is 0 when
// target is outside the schedule, when the debt mirrors a card balance, or
// when the debt is already paid or completed.
func InstallmentForMonth(d core.Debt, target core.YearMonth) float64 {
	if d.Category == core.CategoryCreditCard || d.Status.Closed() {
		return 0
	}
	if !IsInRange(d, target) {
		return 0
	}
	return InstallmentAmount(d)
}

// IsBeforeStart reports whether target precedes the first installment.
func IsBeforeStart(d core.Debt, target core.YearMonth) bool {
	return target.Ordinal() < d.StartYearMonth.Ordinal()
}

// IsAfterEnd reports whether target follows the last installment.
func IsAfterEnd(d core.Debt, target core.YearMonth) bool {
	return target.Ordinal() > LastYearMonth(d).Ordinal()
}

// IsInRange reports whether one of the debt's installments falls in target.
// Debts without a start month or installments are never in range.
func IsInRange(d core.Debt, target core.YearMonth) bool {
	if d.StartYearMonth.IsZero() || d.InstallmentsCount < 1 {
		return false
	}
	return !IsBeforeStart(d, target) && !IsAfterEnd(d, target)
}

// LastYearMonth is the month of the final installment.
func LastYearMonth(d core.Debt) core.YearMonth {
	n := d.InstallmentsCount
	if n < 1 {
		n = 1
	}
	return d.StartYearMonth.AddMonths(n - 1)
}

// DueDate projects the debt's due day onto target, clamped to the month.
func DueDate(d core.Debt, target core.YearMonth) core.Date {
	day := d.DueDay
	if day < 1 {
		day = 1
	}
	return target.Date(day)
}

// PaymentsInMonth sums the discrete payments dated inside target.
func PaymentsInMonth(d core.Debt, target core.YearMonth) float64 {
	total := 0.0
	for _, p := range d.Payments {
		if target.Contains(p.Date) {
			total += p.Amount
		}
	}
	return total
}

// TotalPaid sums every discrete payment and prepayment.
func TotalPaid(d core.Debt) float64 {
	total := 0.0
	for _, p := range d.Payments {
		total += p.Amount
	}
	for _, p := range d.Prepayments {
		total += p.Amount
	}
	return total
}

// Outstanding is the balance still owed. RemainingAmount is used when set;
// otherwise the balance is derived from the total minus payments.
func Outstanding(d core.Debt) float64 {
	if d.RemainingAmount > 0 {
		return d.RemainingAmount
	}
	return math.Max(0, d.TotalAmount-TotalPaid(d))
}
