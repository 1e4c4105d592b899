// Package recurrence resolves when recurring items are scheduled and whether
// they have executed in a given month.
//
// Each recurrence type has its own Checker. Fixed expenses are either
// MONTHLY, active every month between their start and end months, or ONCE,
// active only in their start month.
package recurrence

import (
	"fmt"

	"finanzas/internal/core"
)

// Checker decides whether a fixed expense is scheduled in a month and whether
// it is due for automatic execution on a given day.
type Checker interface {
	// ActiveIn reports whether fe has an occurrence scheduled in ym.
	ActiveIn(fe core.FixedExpense, ym core.YearMonth) bool
	// IsDue reports whether the occurrence in today's month has reached its
	// scheduled day and has not been executed yet.
	IsDue(fe core.FixedExpense, today core.Date) bool
}

// MonthlyChecker implements Checker for MONTHLY expenses.
type MonthlyChecker struct{}

// ActiveIn returns true between the start and end months, inclusive. A zero
// end month means open ended.
func (MonthlyChecker) ActiveIn(fe core.FixedExpense, ym core.YearMonth) bool {
	if fe.StartYearMonth.IsZero() || ym.Before(fe.StartYearMonth) {
		return false
	}
	return fe.EndYearMonth.IsZero() || !ym.After(fe.EndYearMonth)
}

// IsDue returns true once the clamped due day is reached in an active month.
func (c MonthlyChecker) IsDue(fe core.FixedExpense, today core.Date) bool {
	return isDue(c, fe, today)
}

// OnceChecker implements Checker for ONCE expenses.
type OnceChecker struct{}

// ActiveIn returns true only in the start month.
func (OnceChecker) ActiveIn(fe core.FixedExpense, ym core.YearMonth) bool {
	return !fe.StartYearMonth.IsZero() && fe.StartYearMonth == ym
}

// IsDue returns true once the due day of the start month is reached.
func (c OnceChecker) IsDue(fe core.FixedExpense, today core.Date) bool {
	return isDue(c, fe, today)
}

func isDue(c Checker, fe core.FixedExpense, today core.Date) bool {
	ym := core.YearMonthOf(today)
	if !c.ActiveIn(fe, ym) {
		return false
	}
	if _, done := ExecutionForMonth(fe, ym); done {
		return false
	}
	return !today.Before(ScheduledDate(fe, ym).Time)
}

var checkers = map[core.Recurrence]Checker{
	core.Monthly: MonthlyChecker{},
	core.Once:    OnceChecker{},
}

// GetChecker returns the checker for a recurrence type.
func GetChecker(r core.Recurrence) (Checker, error) {
	c, ok := checkers[r]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidRecurrence, r)
	}
	return c, nil
}

// RegisterChecker installs a checker for a recurrence type.
func RegisterChecker(r core.Recurrence, c Checker) {
	checkers[r] = c
}

// ActiveIn reports whether fe is scheduled in ym. Unknown recurrences are
// treated as MONTHLY.
func ActiveIn(fe core.FixedExpense, ym core.YearMonth) bool {
	c, err := GetChecker(fe.Recurrence)
	if err != nil {
		c = MonthlyChecker{}
	}
	return c.ActiveIn(fe, ym)
}

// DueForAutoDebit reports whether an auto-debit expense should be executed
// automatically on today.
func DueForAutoDebit(fe core.FixedExpense, today core.Date) bool {
	if !fe.AutoDebit {
		return false
	}
	c, err := GetChecker(fe.Recurrence)
	if err != nil {
		return false
	}
	return c.IsDue(fe, today)
}
