package recurrence

import "finanzas/internal/core"

// ScheduledDate projects the expense's due day onto ym.
func ScheduledDate(fe core.FixedExpense, ym core.YearMonth) core.Date {
	return ym.Date(fe.DueDay)
}

// ExecutionForMonth returns the execution recorded for ym, if any. This is
// the only signal deciding whether an expense is actual for the month.
func ExecutionForMonth(fe core.FixedExpense, ym core.YearMonth) (core.Execution, bool) {
	for _, e := range fe.Executions {
		if e.YearMonth == ym {
			return e, true
		}
	}
	return core.Execution{}, false
}

// WithExecution returns fe with e recorded, replacing an existing record for
// the same month. The input slice is not modified.
func WithExecution(fe core.FixedExpense, e core.Execution) core.FixedExpense {
	out := make([]core.Execution, 0, len(fe.Executions)+1)
	for _, existing := range fe.Executions {
		if existing.YearMonth != e.YearMonth {
			out = append(out, existing)
		}
	}
	fe.Executions = append(out, e)
	return fe
}

// IncomeScheduledDate projects the expected day onto the income's month. A
// missing expected day means the first of the month.
func IncomeScheduledDate(in core.Income) core.Date {
	day := in.ExpectedDay
	if day < 1 {
		day = 1
	}
	return in.YearMonth.Date(day)
}

// IncomeEffectiveDate returns when the income was actually received: the
// explicit effective date, or the scheduled date for a received income with
// no explicit date.
func IncomeEffectiveDate(in core.Income) (core.Date, bool) {
	if !in.EffectiveDate.IsZero() {
		return in.EffectiveDate, true
	}
	if in.Status == core.IncomeReceived && !in.YearMonth.IsZero() {
		return IncomeScheduledDate(in), true
	}
	return core.Date{}, false
}

// IncomeCollectedIn reports whether the income's effective date falls in ym.
func IncomeCollectedIn(in core.Income, ym core.YearMonth) bool {
	d, ok := IncomeEffectiveDate(in)
	return ok && ym.Contains(d)
}
