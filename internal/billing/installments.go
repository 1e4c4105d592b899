package billing

import (
	"fmt"
	"strings"

	"finanzas/internal/core"
)

// PurchaseInput is a purchase as entered by the user.
type PurchaseInput struct {
	Description  string        `json:"description"`
	Amount       float64       `json:"amount"`
	Currency     core.Currency `json:"currency"`
	PurchaseDate core.Date     `json:"purchaseDate"`
	Installments int           `json:"installments"`
	Category     string        `json:"category,omitempty"`
	// CreateAllInstallments materializes every installment unless it is set
	// to false. Then only the first one is created and later statements
	// under-report until the remaining installments are added.
	CreateAllInstallments *bool `json:"createAllInstallments,omitempty"`
}

// ExpandsAll reports whether every installment is materialized.
func (in PurchaseInput) ExpandsAll() bool {
	return in.CreateAllInstallments == nil || *in.CreateAllInstallments
}

// IDFunc generates record identifiers.
type IDFunc func() string

// ExpandConsumption splits a purchase into per-installment postings, each
// attributed to successive statements of card. The per-installment amount
// is Amount/N with no remainder correction.
func ExpandConsumption(in PurchaseInput, card core.CreditCard, newID IDFunc) ([]core.CardConsumption, error) {
	n := in.Installments
	if n == 0 {
		n = 1
	}
	if n < 0 {
		return nil, core.ErrInvalidInstallments
	}
	if in.Currency == "" {
		in.Currency = card.Currency
	}

	base := CycleOf(card).Resolve(in.PurchaseDate)
	perInstallment := in.Amount / float64(n)

	count := n
	if !in.ExpandsAll() {
		count = 1
	}

	purchaseID := ""
	if n > 1 {
		purchaseID = newID()
	}

	out := make([]core.CardConsumption, 0, count)
	for i := 0; i < count; i++ {
		c := core.CardConsumption{
			ID:               newID(),
			CardID:           card.ID,
			PurchaseID:       purchaseID,
			Description:      strings.TrimSpace(in.Description),
			Amount:           perInstallment,
			Currency:         in.Currency,
			PurchaseDate:     in.PurchaseDate,
			ClosingYearMonth: base.ClosingYearMonth.AddMonths(i),
			PostedYearMonth:  base.DueYearMonth.AddMonths(i),
			Category:         in.Category,
		}
		if n > 1 {
			c.InstallmentTotal = n
			c.InstallmentIndex = i + 1
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("installment %d/%d: %w", i+1, n, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Reassign recomputes the closing and posted months of an edited
// consumption from its purchase date. Installment siblings are not touched.
func Reassign(c core.CardConsumption, card core.CreditCard) core.CardConsumption {
	a := CycleOf(card).Resolve(c.PurchaseDate)
	offset := 0
	if c.InstallmentIndex > 1 {
		offset = c.InstallmentIndex - 1
	}
	c.ClosingYearMonth = a.ClosingYearMonth.AddMonths(offset)
	c.PostedYearMonth = a.DueYearMonth.AddMonths(offset)
	return c
}
