package kpi

import (
	"finanzas/internal/amortization"
	"finanzas/internal/core"
	"finanzas/internal/recurrence"
)

// Inputs is everything the aggregator needs for one month. The caller loads
// the slices; the aggregator does no I/O.
type Inputs struct {
	Month core.YearMonth

	// IncomesForMonth are the income rows scheduled in Month.
	IncomesForMonth []core.Income
	// AllIncomes is every income row; collection is matched by effective
	// date, which may fall outside the scheduled month.
	AllIncomes    []core.Income
	FixedExpenses []core.FixedExpense

	// ConsumptionsClosing are the consumptions whose closing month is Month.
	ConsumptionsClosing    []core.CardConsumption
	StatementsDueNextMonth []core.Statement
	StatementsDueThisMonth []core.Statement
	AllStatements          []core.Statement

	Debts   []core.Debt
	Budgets []core.BudgetCategory

	// Rate is nil when no exchange rate is available.
	Rate       *core.ExchangeRate
	Currencies core.CurrencyPair
}

// ComputeMonthlyKpis folds one month of records into a Snapshot.
//
// Plan uses the accrual view of cards (spend closing this month) plus the
// scheduled debt installments. Actual uses statements paid this month plus
// discrete debt payments dated this month. Ratios are percentages of Plan
// income and are 0 when Plan income is 0.
func ComputeMonthlyKpis(in Inputs) Snapshot {
	pair := in.Currencies
	if pair.Local == "" {
		pair.Local = core.DefaultCurrencies.Local
	}
	if pair.Foreign == "" {
		pair.Foreign = core.DefaultCurrencies.Foreign
	}

	s := Snapshot{Month: in.Month, Currencies: pair}
	if in.Rate != nil {
		r := *in.Rate
		s.FXRate = &r
	}

	for _, inc := range in.IncomesForMonth {
		s.IncomeEstimated += inc.Amount
		if _, ok := recurrence.IncomeEffectiveDate(inc); !ok {
			s.PendingIncomes++
		}
	}
	for _, inc := range in.AllIncomes {
		if recurrence.IncomeCollectedIn(inc, in.Month) {
			s.IncomeCollected += inc.Amount
		}
	}

	for _, fe := range in.FixedExpenses {
		if !recurrence.ActiveIn(fe, in.Month) {
			continue
		}
		s.FixedExpensesPlanned += fe.Amount
		e, ok := recurrence.ExecutionForMonth(fe, in.Month)
		if !ok {
			s.PendingFixedExpenses++
			continue
		}
		if e.AmountPaid > 0 {
			s.FixedExpensesExecuted += e.AmountPaid
		} else {
			s.FixedExpensesExecuted += fe.Amount
		}
	}

	s.Cards = accrue(in.ConsumptionsClosing, pair.Foreign, in.Rate)
	s.CardsAccrued = s.Cards.Total
	s.CardsAccruedUnconverted = s.Cards.Local + s.Cards.Foreign
	s.CardsDueThisMonth = sumStatements(in.StatementsDueThisMonth)
	s.CardsDueNextMonth = sumStatements(in.StatementsDueNextMonth)
	s.StatementsPaid = paidInMonth(in.AllStatements, in.Month)

	for _, d := range in.Debts {
		installment := amortization.InstallmentForMonth(d, in.Month)
		if installment > 0 {
			s.ActiveDebts++
		}
		s.DebtInstallments += installment
		s.DebtPayments += amortization.PaymentsInMonth(d, in.Month)
	}

	for _, b := range in.Budgets {
		if b.YearMonth != in.Month {
			continue
		}
		s.BudgetEstimated += b.Estimated
		s.BudgetSpent += b.Spent
	}

	s.Plan = view(s.IncomeEstimated,
		s.FixedExpensesPlanned+s.BudgetEstimated,
		s.CardsAccrued+s.DebtInstallments)
	s.Actual = view(s.IncomeCollected,
		s.FixedExpensesExecuted+s.BudgetSpent,
		s.StatementsPaid+s.DebtPayments)

	s.TotalCommitments = s.Plan.Commitments
	s.Savings = s.Plan.Savings
	s.CoverageRatio = percentOf(s.Plan.Expenses+s.Plan.Commitments, s.Plan.Income)
	s.FixedExpenseLoad = percentOf(s.FixedExpensesPlanned, s.Plan.Income)
	s.DebtLoad = percentOf(s.DebtInstallments, s.Plan.Income)
	return s
}

func view(income, expenses, commitments float64) View {
	return View{
		Income:      income,
		Expenses:    expenses,
		Commitments: commitments,
		Savings:     income - (expenses + commitments),
	}
}

// accrue splits consumptions by currency. The foreign part is converted only
// when a usable rate exists and the foreign total is positive; otherwise it
// contributes 0 to Total.
func accrue(cs []core.CardConsumption, foreign core.Currency, rate *core.ExchangeRate) CardAccrual {
	var a CardAccrual
	for _, c := range cs {
		if c.Currency == foreign {
			a.Foreign += c.Amount
		} else {
			a.Local += c.Amount
		}
	}
	a.FXAvailable = rate != nil && rate.Usable()
	if a.FXAvailable && a.Foreign > 0 {
		a.ForeignConverted = a.Foreign * rate.Sell
	}
	a.Total = a.Local + a.ForeignConverted
	return a
}

func sumStatements(ss []core.Statement) float64 {
	total := 0.0
	for _, st := range ss {
		total += st.TotalAmount
	}
	return total
}

// paidInMonth sums statements marked PAID whose paid date is in ym, using the
// paid amount when recorded.
func paidInMonth(ss []core.Statement, ym core.YearMonth) float64 {
	total := 0.0
	for _, st := range ss {
		if st.Status != core.StatementPaid || !ym.Contains(st.PaidAt) {
			continue
		}
		if st.PaidAmount > 0 {
			total += st.PaidAmount
		} else {
			total += st.TotalAmount
		}
	}
	return total
}

func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
