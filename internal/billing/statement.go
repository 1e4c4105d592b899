package billing

import "finanzas/internal/core"

// BuildStatement computes the statement of card closing in closingYM from
// scratch: the total is the sum of every consumption of that card closing in
// that month. The id and payment fields of existing, when given, are kept;
// otherwise id is used. Consumptions of other cards or months are ignored.
func BuildStatement(card core.CreditCard, closingYM core.YearMonth, consumptions []core.CardConsumption, existing *core.Statement, id string) core.Statement {
	p := CycleOf(card).ClosingIn(closingYM)

	st := core.Statement{
		CardID:           card.ID,
		ClosingYearMonth: p.ClosingYearMonth,
		DueYearMonth:     p.DueYearMonth,
		CloseDate:        p.CloseDate,
		DueDate:          p.DueDate,
		PeriodStart:      p.PeriodStart,
		PeriodEnd:        p.PeriodEnd,
		Status:           core.StatementUnpaid,
	}
	if existing != nil {
		st.ID = existing.ID
		st.Status = existing.Status
		st.PaidAt = existing.PaidAt
		st.PaymentMovementID = existing.PaymentMovementID
		st.PaidAmount = existing.PaidAmount
	}
	if st.ID == "" {
		st.ID = id
	}
	if st.Status == "" {
		st.Status = core.StatementUnpaid
	}

	for _, c := range consumptions {
		if c.CardID == card.ID && c.ClosingYearMonth == closingYM {
			st.TotalAmount += c.Amount
		}
	}
	return st
}
