// Package billing maps purchases onto credit-card statements.
//
// A card is configured with a closing day and a due day. A purchase made on
// or before the closing day accrues into the statement closing that month;
// later purchases accrue into the next one. The statement always falls due
// one calendar month after it closes, whatever the relative position of the
// two days.
package billing

import "finanzas/internal/core"

// Assignment is the pair of months a purchase is attributed to.
type Assignment struct {
	ClosingYearMonth core.YearMonth `json:"closingYearMonth"`
	DueYearMonth     core.YearMonth `json:"dueYearMonth"`
}

// Period describes one statement of a card with every day clamped into its
// month. PeriodStart is the day after the previous statement closed.
type Period struct {
	ClosingYearMonth core.YearMonth `json:"closingYearMonth"`
	DueYearMonth     core.YearMonth `json:"dueYearMonth"`
	CloseDate        core.Date      `json:"closeDate"`
	DueDate          core.Date      `json:"dueDate"`
	PeriodStart      core.Date      `json:"periodStart"`
	PeriodEnd        core.Date      `json:"periodEnd"`
}

// Cycle is the closing/due configuration of a card.
type Cycle struct {
	ClosingDay int
	DueDay     int
}

// CycleOf returns the billing cycle of a card.
func CycleOf(card core.CreditCard) Cycle {
	return Cycle{ClosingDay: card.ClosingDay, DueDay: card.DueDay}
}

// ResolveStatementForPurchase returns the statement a purchase closes into
// and the month that statement is due.
func ResolveStatementForPurchase(closingDay, dueDay int, purchase core.Date) Assignment {
	return Cycle{ClosingDay: closingDay, DueDay: dueDay}.Resolve(purchase)
}

// Resolve implements ResolveStatementForPurchase for c.
func (c Cycle) Resolve(purchase core.Date) Assignment {
	closing := core.YearMonthOf(purchase)
	if purchase.Day() > c.ClosingDay {
		closing = closing.AddMonths(1)
	}
	return Assignment{
		ClosingYearMonth: closing,
		DueYearMonth:     closing.AddMonths(1),
	}
}

// StatementClosingInMonth describes the statement that closes in target.
func StatementClosingInMonth(closingDay, dueDay int, target core.YearMonth) Period {
	return Cycle{ClosingDay: closingDay, DueDay: dueDay}.ClosingIn(target)
}

// StatementDueInMonth describes the statement that falls due in target,
// which is the one that closed the month before.
func StatementDueInMonth(closingDay, dueDay int, target core.YearMonth) Period {
	return Cycle{ClosingDay: closingDay, DueDay: dueDay}.DueIn(target)
}

// ClosingIn implements StatementClosingInMonth for c.
func (c Cycle) ClosingIn(target core.YearMonth) Period {
	due := target.AddMonths(1)
	previousClose := target.AddMonths(-1).Date(c.ClosingDay)
	return Period{
		ClosingYearMonth: target,
		DueYearMonth:     due,
		CloseDate:        target.Date(c.ClosingDay),
		DueDate:          due.Date(c.DueDay),
		PeriodStart:      previousClose.AddDays(1),
		PeriodEnd:        target.Date(c.ClosingDay),
	}
}

// DueIn implements StatementDueInMonth for c.
func (c Cycle) DueIn(target core.YearMonth) Period {
	return c.ClosingIn(target.AddMonths(-1))
}

// Contains reports whether d falls inside the period bounds, inclusive.
func (p Period) Contains(d core.Date) bool {
	if d.IsZero() {
		return false
	}
	return !d.Before(p.PeriodStart.Time) && !d.After(p.PeriodEnd.Time)
}
