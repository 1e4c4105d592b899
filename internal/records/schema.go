package records

import (
	"sort"

	"finanzas/internal/core"
)

// Secondary index names. They double as sqlite column names.
const (
	IndexCardID     = "card_id"
	IndexPurchaseID = "purchase_id"
	IndexClosingYM  = "closing_ym"
	IndexPostedYM   = "posted_ym"
	IndexDueYM      = "due_ym"
	IndexYearMonth  = "year_month"
)

// Schema names a table and how to derive its index keys from a record.
type Schema[T Entity] struct {
	Name    string
	Indexes map[string]func(T) string
}

// IndexNames returns the index names in a stable order.
func (s Schema[T]) IndexNames() []string {
	names := make([]string, 0, len(s.Indexes))
	for n := range s.Indexes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HasIndex reports whether name is an index of the table.
func (s Schema[T]) HasIndex(name string) bool {
	_, ok := s.Indexes[name]
	return ok
}

// Keys evaluates every index of rec.
func (s Schema[T]) Keys(rec T) map[string]string {
	out := make(map[string]string, len(s.Indexes))
	for n, f := range s.Indexes {
		out[n] = f(rec)
	}
	return out
}

var (
	CardSchema = Schema[core.CreditCard]{Name: "cards"}

	ConsumptionSchema = Schema[core.CardConsumption]{
		Name: "consumptions",
		Indexes: map[string]func(core.CardConsumption) string{
			IndexCardID:     func(c core.CardConsumption) string { return c.CardID },
			IndexPurchaseID: func(c core.CardConsumption) string { return c.PurchaseID },
			IndexClosingYM:  func(c core.CardConsumption) string { return c.ClosingYearMonth.String() },
			IndexPostedYM:   func(c core.CardConsumption) string { return c.PostedYearMonth.String() },
		},
	}

	StatementSchema = Schema[core.Statement]{
		Name: "statements",
		Indexes: map[string]func(core.Statement) string{
			IndexCardID:    func(s core.Statement) string { return s.CardID },
			IndexClosingYM: func(s core.Statement) string { return s.ClosingYearMonth.String() },
			IndexDueYM:     func(s core.Statement) string { return s.DueYearMonth.String() },
		},
	}

	DebtSchema = Schema[core.Debt]{Name: "debts"}

	FixedExpenseSchema = Schema[core.FixedExpense]{Name: "fixed_expenses"}

	IncomeSchema = Schema[core.Income]{
		Name: "incomes",
		Indexes: map[string]func(core.Income) string{
			IndexYearMonth: func(in core.Income) string { return in.YearMonth.String() },
		},
	}

	BudgetSchema = Schema[core.BudgetCategory]{
		Name: "budgets",
		Indexes: map[string]func(core.BudgetCategory) string{
			IndexYearMonth: func(b core.BudgetCategory) string { return b.YearMonth.String() },
		},
	}
)
