package migration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"finanzas/internal/core"
)

// LegacySource is the key of the flat store document in the legacy store.
const LegacySource = "store"

// Number decodes a JSON number or a numeric string such as "1.234,56".
// Anything unparseable decodes as 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = Number(v)
			return nil
		}
		v, err := core.ParseAmount(s)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

// Int is Number truncated to an integer.
func (n Number) Int() int { return int(n) }

// Flag decodes true/false, 0/1 or "si"/"yes"/"true".
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(string(b)), `"`)) {
	case "true", "1", "yes", "si", "sí":
		*f = true
	default:
		*f = false
	}
	return nil
}

// The legacy flat store: one document with cards embedding their
// consumptions and loosely typed top-level lists.
type (
	LegacyStore struct {
		Cards         []LegacyCard         `json:"cards"`
		Debts         []LegacyDebt         `json:"debts"`
		FixedExpenses []LegacyFixedExpense `json:"fixedExpenses"`
		Incomes       []LegacyIncome       `json:"incomes"`
		Budgets       []LegacyBudget       `json:"budgets"`
		Statements    []LegacyStatement    `json:"statements"`
	}

	LegacyCard struct {
		ID           string              `json:"id"`
		Bank         string              `json:"bank"`
		Name         string              `json:"name"`
		Last4        string              `json:"last4"`
		Network      string              `json:"network"`
		Currency     string              `json:"currency"`
		ClosingDay   Number              `json:"closingDay"`
		DueDay       Number              `json:"dueDay"`
		Consumptions []LegacyConsumption `json:"consumptions"`
	}

	LegacyConsumption struct {
		ID               string `json:"id"`
		Description      string `json:"description"`
		Amount           Number `json:"amount"`
		Currency         string `json:"currency"`
		Date             string `json:"date"`
		PurchaseDate     string `json:"purchaseDate"`
		ClosingYearMonth string `json:"closingYearMonth"`
		PostedYearMonth  string `json:"postedYearMonth"`
		Installments     Number `json:"installments"`
		InstallmentIndex Number `json:"installmentIndex"`
		Category         string `json:"category"`
	}

	LegacyStatement struct {
		CardID           string `json:"cardId"`
		ClosingYearMonth string `json:"closingYearMonth"`
		Paid             Flag   `json:"paid"`
		PaidAt           string `json:"paidAt"`
		PaidAmount       Number `json:"paidAmount"`
	}

	LegacyPayment struct {
		Date   string `json:"date"`
		Amount Number `json:"amount"`
	}

	LegacyDebt struct {
		ID                 string          `json:"id"`
		Name               string          `json:"name"`
		Creditor           string          `json:"creditor"`
		Type               string          `json:"type"`
		Category           string          `json:"category"`
		TotalAmount        Number          `json:"totalAmount"`
		RemainingAmount    Number          `json:"remainingAmount"`
		InstallmentsCount  Number          `json:"installmentsCount"`
		Installments       Number          `json:"installments"`
		InstallmentAmount  Number          `json:"installmentAmount"`
		MonthlyValue       Number          `json:"monthlyValue"`
		CurrentInstallment Number          `json:"currentInstallment"`
		DueDay             Number          `json:"dueDay"`
		StartYearMonth     string          `json:"startYearMonth"`
		StartDate          string          `json:"startDate"`
		FirstDueDate       string          `json:"firstDueDate"`
		CreatedAt          string          `json:"createdAt"`
		Status             string          `json:"status"`
		Payments           []LegacyPayment `json:"payments"`
	}

	LegacyFixedExpense struct {
		ID             string   `json:"id"`
		Name           string   `json:"name"`
		Amount         Number   `json:"amount"`
		DueDay         Number   `json:"dueDay"`
		Category       string   `json:"category"`
		Recurrence     string   `json:"recurrence"`
		StartYearMonth string   `json:"startYearMonth"`
		EndYearMonth   string   `json:"endYearMonth"`
		AutoDebit      Flag     `json:"autoDebit"`
		PaidMonths     []string `json:"paidMonths"`
	}

	LegacyIncome struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Amount        Number `json:"amount"`
		YearMonth     string `json:"yearMonth"`
		Month         string `json:"month"`
		ExpectedDay   Number `json:"expectedDay"`
		Guaranteed    Flag   `json:"guaranteed"`
		Received      Flag   `json:"received"`
		EffectiveDate string `json:"effectiveDate"`
	}

	LegacyBudget struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		YearMonth string `json:"yearMonth"`
		Estimated Number `json:"estimated"`
		Spent     Number `json:"spent"`
	}
)

// ParseLegacyStore decodes the flat store document. Only a document that is
// not JSON at all is an error; missing or mistyped fields decode as zero.
func ParseLegacyStore(b []byte) (*LegacyStore, error) {
	var s LegacyStore
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode legacy store: %w", err)
	}
	return &s, nil
}

// parseDate accepts an ISO date or timestamp; malformed input yields zero.
func parseDate(s string) core.Date {
	var d core.Date
	if err := d.UnmarshalText([]byte(s)); err != nil {
		return core.Date{}
	}
	return d
}

// parseYearMonth accepts YYYY-MM or a full date; malformed input yields zero.
func parseYearMonth(s string) core.YearMonth {
	var ym core.YearMonth
	if err := ym.UnmarshalText([]byte(s)); err != nil {
		return core.YearMonth{}
	}
	return ym
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
