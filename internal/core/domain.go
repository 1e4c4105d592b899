package core

import "strings"

const (
	Monthly Recurrence = "MONTHLY"
	Once    Recurrence = "ONCE"
)

const (
	StatementUnpaid StatementStatus = "UNPAID"
	StatementPaid   StatementStatus = "PAID"
)

const (
	DebtActive    DebtStatus = "active"
	DebtOverdue   DebtStatus = "overdue"
	DebtPaid      DebtStatus = "paid"
	DebtCompleted DebtStatus = "completed"
)

const (
	ReduceCount  PrepaymentStrategy = "reduce_count"
	ReduceAmount PrepaymentStrategy = "reduce_amount"
)

const (
	IncomeExpected IncomeStatus = "expected"
	IncomeReceived IncomeStatus = "received"
)

// Debt categories. CategoryCreditCard marks a placeholder debt that mirrors a
// card balance; its installments are already counted through statements.
const (
	CategoryBankLoan   DebtCategory = "bank_loan"
	CategoryCreditCard DebtCategory = "credit_card"
	CategoryMortgage   DebtCategory = "mortgage"
	CategoryFamily     DebtCategory = "family"
	CategoryServices   DebtCategory = "services"
	CategoryOther      DebtCategory = "other"
)

type (
	Recurrence         string
	StatementStatus    string
	DebtStatus         string
	DebtCategory       string
	PrepaymentStrategy string
	IncomeStatus       string

	CreditCard struct {
		ID                string   `json:"id"`
		Bank              string   `json:"bank"`
		Name              string   `json:"name"`
		Last4             string   `json:"last4"`
		Network           string   `json:"network"`
		Currency          Currency `json:"currency"`
		ClosingDay        int      `json:"closingDay"`
		DueDay            int      `json:"dueDay"`
		SettlementAccount string   `json:"settlementAccountId,omitempty"`
	}

	// CardConsumption is one posting on a card. Multi-installment purchases
	// produce one row per installment sharing PurchaseID.
	CardConsumption struct {
		ID               string    `json:"id"`
		CardID           string    `json:"cardId"`
		PurchaseID       string    `json:"purchaseId,omitempty"`
		Description      string    `json:"description"`
		Amount           float64   `json:"amount"`
		Currency         Currency  `json:"currency"`
		PurchaseDate     Date      `json:"purchaseDate"`
		ClosingYearMonth YearMonth `json:"closingYearMonth"`
		PostedYearMonth  YearMonth `json:"postedYearMonth"`
		InstallmentTotal int       `json:"installmentTotal,omitempty"`
		InstallmentIndex int       `json:"installmentIndex,omitempty"`
		Category         string    `json:"category,omitempty"`
	}

	// Statement caches the total of one card for one closing month.
	Statement struct {
		ID                string          `json:"id"`
		CardID            string          `json:"cardId"`
		ClosingYearMonth  YearMonth       `json:"closingYearMonth"`
		DueYearMonth      YearMonth       `json:"dueYearMonth"`
		CloseDate         Date            `json:"closeDate"`
		DueDate           Date            `json:"dueDate"`
		PeriodStart       Date            `json:"periodStart"`
		PeriodEnd         Date            `json:"periodEnd"`
		TotalAmount       float64         `json:"totalAmount"`
		Status            StatementStatus `json:"status"`
		PaidAt            Date            `json:"paidAt"`
		PaymentMovementID string          `json:"paymentMovementId,omitempty"`
		PaidAmount        float64         `json:"paidAmount,omitempty"`
	}

	DebtPayment struct {
		Date       Date    `json:"date"`
		Amount     float64 `json:"amount"`
		MovementID string  `json:"movementId,omitempty"`
	}

	Prepayment struct {
		Date     Date               `json:"date"`
		Amount   float64            `json:"amount"`
		Strategy PrepaymentStrategy `json:"strategy"`
	}

	// Debt is a fixed-installment obligation. CurrentInstallment is a cached
	// convenience value; the schedule is derived from StartYearMonth and
	// InstallmentsCount.
	Debt struct {
		ID                 string        `json:"id"`
		Name               string        `json:"name"`
		Creditor           string        `json:"creditor,omitempty"`
		Category           DebtCategory  `json:"category"`
		TotalAmount        float64       `json:"totalAmount"`
		RemainingAmount    float64       `json:"remainingAmount"`
		InstallmentsCount  int           `json:"installmentsCount"`
		InstallmentAmount  float64       `json:"installmentAmount"`
		MonthlyValue       float64       `json:"monthlyValue"`
		CurrentInstallment int           `json:"currentInstallment"`
		DueDay             int           `json:"dueDay"`
		StartYearMonth     YearMonth     `json:"startYearMonth"`
		FirstDueDate       Date          `json:"firstDueDate"`
		CreatedAt          Date          `json:"createdAt"`
		Status             DebtStatus    `json:"status"`
		Payments           []DebtPayment `json:"payments,omitempty"`
		Prepayments        []Prepayment  `json:"prepayments,omitempty"`
	}

	// Execution records that a fixed expense was paid for YearMonth.
	Execution struct {
		YearMonth  YearMonth `json:"yearMonth"`
		Date       Date      `json:"date"`
		AmountPaid float64   `json:"amountPaid"`
		MovementID string    `json:"movementId,omitempty"`
	}

	FixedExpense struct {
		ID             string      `json:"id"`
		Name           string      `json:"name"`
		Amount         float64     `json:"amount"`
		DueDay         int         `json:"dueDay"`
		Category       string      `json:"category,omitempty"`
		Recurrence     Recurrence  `json:"recurrence"`
		StartYearMonth YearMonth   `json:"startYearMonth"`
		EndYearMonth   YearMonth   `json:"endYearMonth"`
		AutoDebit      bool        `json:"autoDebit"`
		Executions     []Execution `json:"executions,omitempty"`
	}

	// Income is scoped to exactly one YearMonth. Recurring incomes are stored
	// as independent rows, one per month.
	Income struct {
		ID            string       `json:"id"`
		Name          string       `json:"name"`
		Amount        float64      `json:"amount"`
		YearMonth     YearMonth    `json:"yearMonth"`
		ExpectedDay   int          `json:"expectedDay"`
		Guaranteed    bool         `json:"guaranteed"`
		Status        IncomeStatus `json:"status"`
		EffectiveDate Date         `json:"effectiveDate"`
		MovementID    string       `json:"movementId,omitempty"`
	}

	BudgetCategory struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		YearMonth YearMonth `json:"yearMonth"`
		Estimated float64   `json:"estimated"`
		Spent     float64   `json:"spent"`
	}
)

// IsValid reports whether s names a known strategy.
func (s PrepaymentStrategy) IsValid() bool {
	return s == ReduceCount || s == ReduceAmount
}

// IsValid reports whether r names a known recurrence.
func (r Recurrence) IsValid() bool {
	return r == Monthly || r == Once
}

// Closed reports whether the debt no longer produces installments.
func (s DebtStatus) Closed() bool {
	return s == DebtPaid || s == DebtCompleted
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 || c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidDay
	}
	return c.Currency.Validate()
}

func (c CardConsumption) Validate() error {
	if strings.TrimSpace(c.Description) == "" {
		return ErrEmptyDescription
	}
	if len(c.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if c.Amount <= 0 {
		return ErrInvalidAmount
	}
	if err := c.PurchaseDate.Validate(); err != nil {
		return err
	}
	return c.Currency.Validate()
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if d.TotalAmount <= 0 {
		return ErrInvalidAmount
	}
	if d.InstallmentsCount < 1 {
		return ErrInvalidInstallments
	}
	if d.DueDay < 0 || d.DueDay > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (fe FixedExpense) Validate() error {
	if strings.TrimSpace(fe.Name) == "" {
		return ErrEmptyName
	}
	if fe.Amount <= 0 {
		return ErrInvalidAmount
	}
	if fe.DueDay < 1 || fe.DueDay > 31 {
		return ErrInvalidDay
	}
	if !fe.Recurrence.IsValid() {
		return ErrInvalidRecurrence
	}
	if fe.StartYearMonth.IsZero() {
		return ErrInvalidYearMonth
	}
	if !fe.EndYearMonth.IsZero() && fe.EndYearMonth.Before(fe.StartYearMonth) {
		return ErrInvalidRange
	}
	return nil
}

func (in Income) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if in.Amount <= 0 {
		return ErrInvalidAmount
	}
	if in.YearMonth.IsZero() {
		return ErrInvalidYearMonth
	}
	if in.ExpectedDay < 0 || in.ExpectedDay > 31 {
		return ErrInvalidDay
	}
	return nil
}

func (b BudgetCategory) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.Estimated < 0 || b.Spent < 0 {
		return ErrInvalidAmount
	}
	if b.YearMonth.IsZero() {
		return ErrInvalidYearMonth
	}
	return nil
}

func (c CreditCard) RecordID() string      { return c.ID }
func (c CardConsumption) RecordID() string { return c.ID }
func (s Statement) RecordID() string       { return s.ID }
func (d Debt) RecordID() string            { return d.ID }
func (fe FixedExpense) RecordID() string   { return fe.ID }
func (in Income) RecordID() string         { return in.ID }
func (b BudgetCategory) RecordID() string  { return b.ID }
