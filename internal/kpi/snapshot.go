// Package kpi builds the monthly KPI snapshot: one month of incomes, fixed
// expenses, card spend, debts and budgets folded into Plan and Actual
// figures across the local and foreign currency.
package kpi

import "finanzas/internal/core"

// View is one side of the month: scheduled (Plan) or executed (Actual).
type View struct {
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Commitments float64 `json:"commitments"`
	Savings     float64 `json:"savings"`
}

// CardAccrual splits the spend closing in the month by currency.
type CardAccrual struct {
	Local            float64 `json:"local"`
	Foreign          float64 `json:"foreign"`
	ForeignConverted float64 `json:"foreignConverted"`
	Total            float64 `json:"total"`
	FXAvailable      bool    `json:"fxAvailable"`
}

// Snapshot is the aggregated month. The flat fields predate multi-currency
// support and are still read by older views; they are kept alongside the
// extended ones even where redundant.
type Snapshot struct {
	Month core.YearMonth `json:"month"`

	// Flat fields.
	IncomeEstimated         float64 `json:"incomeEstimated"`
	IncomeCollected         float64 `json:"incomeCollected"`
	FixedExpensesPlanned    float64 `json:"fixedExpensesPlanned"`
	FixedExpensesExecuted   float64 `json:"fixedExpensesExecuted"`
	CardsAccrued            float64 `json:"cardsAccrued"`
	CardsDueThisMonth       float64 `json:"cardsDueThisMonth"`
	CardsDueNextMonth       float64 `json:"cardsDueNextMonth"`
	StatementsPaid          float64 `json:"statementsPaid"`
	DebtInstallments        float64 `json:"debtInstallments"`
	DebtPayments            float64 `json:"debtPayments"`
	BudgetEstimated         float64 `json:"budgetEstimated"`
	BudgetSpent             float64 `json:"budgetSpent"`
	TotalCommitments        float64 `json:"totalCommitments"`
	Savings                 float64 `json:"savings"`
	CoverageRatio           float64 `json:"coverageRatio"`
	FixedExpenseLoad        float64 `json:"fixedExpenseLoad"`
	DebtLoad                float64 `json:"debtLoad"`
	PendingFixedExpenses    int     `json:"pendingFixedExpenses"`
	PendingIncomes          int     `json:"pendingIncomes"`
	ActiveDebts             int     `json:"activeDebts"`
	CardsAccruedUnconverted float64 `json:"cardsAccruedUnconverted"`

	// Extended fields.
	Currencies core.CurrencyPair  `json:"currencies"`
	FXRate     *core.ExchangeRate `json:"fxRate,omitempty"`
	Cards      CardAccrual        `json:"cards"`
	Plan       View               `json:"plan"`
	Actual     View               `json:"actual"`
}
