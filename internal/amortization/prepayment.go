package amortization

import (
	"fmt"
	"math"

	"finanzas/internal/core"
)

// ApplyPrepayment returns d with the prepayment applied and recorded. The
// input debt is not modified.
//
// reduce_count shortens the schedule by floor(amount / monthly value)
// installments, never below one. reduce_amount keeps the schedule and
// spreads the new balance over the installments left from the stored
// current one. Both lower the remaining amount, floored at zero.
func ApplyPrepayment(d core.Debt, p core.Prepayment) (core.Debt, error) {
	if p.Amount <= 0 {
		return d, core.ErrInvalidAmount
	}
	if !p.Strategy.IsValid() {
		return d, fmt.Errorf("%w: %q", core.ErrInvalidStrategy, p.Strategy)
	}
	if err := p.Date.Validate(); err != nil {
		return d, err
	}

	out := d
	out.Prepayments = append(make([]core.Prepayment, 0, len(d.Prepayments)+1), d.Prepayments...)
	out.Prepayments = append(out.Prepayments, p)

	remaining := math.Max(0, Outstanding(d)-p.Amount)
	out.RemainingAmount = remaining

	switch p.Strategy {
	case core.ReduceCount:
		monthly := d.MonthlyValue
		if monthly <= 0 {
			monthly = InstallmentAmount(d)
		}
		paidEquivalent := 0
		if monthly > 0 {
			paidEquivalent = int(math.Floor(p.Amount / monthly))
		}
		out.InstallmentsCount = max(1, d.InstallmentsCount-paidEquivalent)
	case core.ReduceAmount:
		current := prepaymentInstallment(d, core.YearMonthOf(p.Date))
		left := d.InstallmentsCount - current + 1
		monthly := 0.0
		if left > 0 {
			monthly = remaining / float64(left)
		}
		out.MonthlyValue = monthly
		out.InstallmentAmount = monthly
	}

	if remaining == 0 {
		out.Status = core.DebtPaid
	}
	return out, nil
}

// prepaymentInstallment is the stored CurrentInstallment. When it was never
// set the installment in progress at ym is derived from the schedule,
// clamped to [1, InstallmentsCount].
func prepaymentInstallment(d core.Debt, ym core.YearMonth) int {
	if d.CurrentInstallment > 0 {
		return d.CurrentInstallment
	}
	if d.StartYearMonth.IsZero() {
		return 1
	}
	n := d.StartYearMonth.MonthsUntil(ym) + 1
	if n < 1 {
		return 1
	}
	if n > d.InstallmentsCount {
		return d.InstallmentsCount
	}
	return n
}

// RegisterPayment appends a discrete payment and lowers the remaining amount.
func RegisterPayment(d core.Debt, p core.DebtPayment) (core.Debt, error) {
	if p.Amount <= 0 {
		return d, core.ErrInvalidAmount
	}
	if err := p.Date.Validate(); err != nil {
		return d, err
	}
	out := d
	out.Payments = append(make([]core.DebtPayment, 0, len(d.Payments)+1), d.Payments...)
	out.Payments = append(out.Payments, p)
	out.RemainingAmount = math.Max(0, Outstanding(d)-p.Amount)
	if out.RemainingAmount == 0 {
		out.Status = core.DebtPaid
	}
	return out, nil
}

// RefreshStatus recomputes the lifecycle status of a debt as of today.
// Paid debts stay paid. A debt past its final installment is completed. A
// debt whose due day passed this month without a payment is overdue.
func RefreshStatus(d core.Debt, today core.Date) core.DebtStatus {
	if d.Status == core.DebtPaid {
		return d.Status
	}
	ym := core.YearMonthOf(today)
	if d.StartYearMonth.IsZero() || d.InstallmentsCount < 1 {
		if d.Status == "" {
			return core.DebtActive
		}
		return d.Status
	}
	if IsAfterEnd(d, ym) {
		return core.DebtCompleted
	}
	if IsInRange(d, ym) && today.After(DueDate(d, ym).Time) && PaymentsInMonth(d, ym) == 0 {
		return core.DebtOverdue
	}
	return core.DebtActive
}
