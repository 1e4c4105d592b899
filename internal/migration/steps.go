package migration

import (
	"math"
	"strconv"
	"strings"

	"finanzas/internal/amortization"
	"finanzas/internal/billing"
	"finanzas/internal/core"
	"finanzas/internal/records"
)

const markerSet = "true"

// ImportLegacy flattens the legacy store into per-entity records. Ids are
// derived from the legacy content, so importing twice yields the same rows;
// records that already exist are left as they are. Without a legacy
// document the step only sets its marker.
func ImportLegacy(d Dataset, _ Markers) (Result, error) {
	out := d
	res := Result{Markers: Markers{MarkerLegacyImport: markerSet}}
	if d.Legacy == nil {
		res.Data = out
		return res, nil
	}
	lg := d.Legacy

	cards := index(d.Cards)
	consumptions := index(d.Consumptions)
	for ci, lc := range lg.Cards {
		card := legacyCard(ci, lc)
		if !cards[card.ID] {
			out.Cards = append(out.Cards, card)
			cards[card.ID] = true
		}
		for i, lcons := range lc.Consumptions {
			c := legacyConsumption(card, i, lcons)
			if !consumptions[c.ID] {
				out.Consumptions = append(out.Consumptions, c)
				consumptions[c.ID] = true
			}
		}
	}

	statements := index(d.Statements)
	for _, ls := range lg.Statements {
		st, ok := legacyStatement(ls, out.Cards)
		if ok && !statements[st.ID] {
			out.Statements = append(out.Statements, st)
			statements[st.ID] = true
		}
	}

	debts := index(d.Debts)
	for i, ld := range lg.Debts {
		debt := legacyDebt(i, ld)
		if !debts[debt.ID] {
			out.Debts = append(out.Debts, debt)
			debts[debt.ID] = true
		}
	}

	expenses := index(d.FixedExpenses)
	for i, lf := range lg.FixedExpenses {
		fe := legacyFixedExpense(i, lf)
		if !expenses[fe.ID] {
			out.FixedExpenses = append(out.FixedExpenses, fe)
			expenses[fe.ID] = true
		}
	}

	incomes := index(d.Incomes)
	for i, li := range lg.Incomes {
		in := legacyIncome(i, li)
		if !incomes[in.ID] {
			out.Incomes = append(out.Incomes, in)
			incomes[in.ID] = true
		}
	}

	budgets := index(d.Budgets)
	for i, lb := range lg.Budgets {
		b := legacyBudget(i, lb)
		if !budgets[b.ID] {
			out.Budgets = append(out.Budgets, b)
			budgets[b.ID] = true
		}
	}

	res.Data = out
	return res, nil
}

// BackfillClosingMonths gives every consumption lacking a closing month the
// one its card's cycle assigns to its purchase date, then rebuilds from
// scratch the statement of every (card, closing month) pair that has
// consumptions, keeping recorded payments.
func BackfillClosingMonths(d Dataset, _ Markers) (Result, error) {
	out := d
	out.Consumptions = append([]core.CardConsumption(nil), d.Consumptions...)

	cards := make(map[string]core.CreditCard, len(d.Cards))
	for _, c := range d.Cards {
		cards[c.ID] = c
	}

	type key struct {
		card string
		ym   core.YearMonth
	}
	seen := map[key]bool{}
	var pairs []key
	for i, c := range out.Consumptions {
		card, ok := cards[c.CardID]
		if !ok {
			continue
		}
		if c.ClosingYearMonth.IsZero() && !c.PurchaseDate.IsZero() {
			a := billing.CycleOf(card).Resolve(c.PurchaseDate)
			offset := max(c.InstallmentIndex-1, 0)
			c.ClosingYearMonth = a.ClosingYearMonth.AddMonths(offset)
			if c.PostedYearMonth.IsZero() {
				c.PostedYearMonth = a.DueYearMonth.AddMonths(offset)
			}
			out.Consumptions[i] = c
		}
		if c.ClosingYearMonth.IsZero() {
			continue
		}
		k := key{card.ID, c.ClosingYearMonth}
		if !seen[k] {
			seen[k] = true
			pairs = append(pairs, k)
		}
	}

	out.Statements = append([]core.Statement(nil), d.Statements...)
	for _, k := range pairs {
		pos := -1
		for i, st := range out.Statements {
			if st.CardID == k.card && st.ClosingYearMonth == k.ym {
				pos = i
				break
			}
		}
		id := records.StatementID(k.card, k.ym.String())
		if pos >= 0 {
			out.Statements[pos] = billing.BuildStatement(cards[k.card], k.ym, out.Consumptions, &out.Statements[pos], id)
		} else {
			out.Statements = append(out.Statements, billing.BuildStatement(cards[k.card], k.ym, out.Consumptions, nil, id))
		}
	}

	return Result{Data: out, Markers: Markers{MarkerClosingMonths: markerSet}}, nil
}

// BackfillDebts maps old category names onto the current set and fills
// installment amount, due day and start month from whatever is present.
// Fields already set are left untouched.
func BackfillDebts(d Dataset, _ Markers) (Result, error) {
	out := d
	out.Debts = make([]core.Debt, len(d.Debts))
	for i, debt := range d.Debts {
		out.Debts[i] = NormalizeDebt(debt)
	}
	return Result{Data: out, Markers: Markers{MarkerDebts: markerSet}}, nil
}

// NormalizeDebt fills the derived debt fields that are missing and maps the
// category onto the current set.
func NormalizeDebt(d core.Debt) core.Debt {
	d.Category = NormalizeCategory(string(d.Category))
	if d.InstallmentsCount < 1 && d.TotalAmount > 0 && d.MonthlyValue > 0 {
		d.InstallmentsCount = int(math.Ceil(d.TotalAmount / d.MonthlyValue))
	}
	if d.InstallmentAmount <= 0 {
		d.InstallmentAmount = amortization.InstallmentAmount(d)
	}
	if d.DueDay < 1 {
		switch {
		case !d.FirstDueDate.IsZero():
			d.DueDay = d.FirstDueDate.Day()
		case !d.CreatedAt.IsZero():
			d.DueDay = d.CreatedAt.Day()
		}
	}
	if d.StartYearMonth.IsZero() {
		switch {
		case !d.FirstDueDate.IsZero():
			d.StartYearMonth = core.YearMonthOf(d.FirstDueDate)
		case !d.CreatedAt.IsZero():
			// The installment in progress at creation dates the start back.
			d.StartYearMonth = core.YearMonthOf(d.CreatedAt).AddMonths(-max(d.CurrentInstallment-1, 0))
		}
	}
	if d.Status == "" {
		d.Status = core.DebtActive
	}
	return d
}

var categoryAliases = map[string]core.DebtCategory{
	"loan":        core.CategoryBankLoan,
	"bank":        core.CategoryBankLoan,
	"prestamo":    core.CategoryBankLoan,
	"préstamo":    core.CategoryBankLoan,
	"personal":    core.CategoryFamily,
	"family":      core.CategoryFamily,
	"familiar":    core.CategoryFamily,
	"card":        core.CategoryCreditCard,
	"tarjeta":     core.CategoryCreditCard,
	"hipoteca":    core.CategoryMortgage,
	"servicio":    core.CategoryServices,
	"servicios":   core.CategoryServices,
	"bank_loan":   core.CategoryBankLoan,
	"credit_card": core.CategoryCreditCard,
	"mortgage":    core.CategoryMortgage,
	"services":    core.CategoryServices,
	"other":       core.CategoryOther,
}

// NormalizeCategory maps a legacy or current category name onto the current
// set. Unknown names become other.
func NormalizeCategory(s string) core.DebtCategory {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return core.CategoryOther
}

func index[T records.Entity](recs []T) map[string]bool {
	out := make(map[string]bool, len(recs))
	for _, r := range recs {
		out[r.RecordID()] = true
	}
	return out
}

func legacyID(kind, id string, pos int, parts ...string) string {
	if strings.TrimSpace(id) != "" {
		return records.StableID(append([]string{kind, id}, parts...)...)
	}
	return records.StableID(append([]string{kind, "#" + strconv.Itoa(pos)}, parts...)...)
}

func clampDay(n int, def int) int {
	if n < 1 || n > 31 {
		return def
	}
	return n
}

func legacyCard(pos int, lc LegacyCard) core.CreditCard {
	name := firstNonEmpty(lc.Name, lc.Bank, "Card "+strconv.Itoa(pos+1))
	return core.CreditCard{
		ID:         legacyID("card", lc.ID, pos),
		Bank:       lc.Bank,
		Name:       name,
		Last4:      lc.Last4,
		Network:    lc.Network,
		Currency:   core.NormalizeCurrency(lc.Currency, core.ARS),
		ClosingDay: clampDay(lc.ClosingDay.Int(), 1),
		DueDay:     clampDay(lc.DueDay.Int(), 10),
	}
}

func legacyConsumption(card core.CreditCard, pos int, lc LegacyConsumption) core.CardConsumption {
	date := parseDate(firstNonEmpty(lc.PurchaseDate, lc.Date))
	c := core.CardConsumption{
		ID:               legacyID("consumption", lc.ID, pos, card.ID),
		CardID:           card.ID,
		Description:      firstNonEmpty(lc.Description, "Consumption"),
		Amount:           float64(lc.Amount),
		Currency:         core.NormalizeCurrency(lc.Currency, card.Currency),
		PurchaseDate:     date,
		ClosingYearMonth: parseYearMonth(lc.ClosingYearMonth),
		PostedYearMonth:  parseYearMonth(lc.PostedYearMonth),
		Category:         lc.Category,
	}
	if n := lc.Installments.Int(); n > 1 {
		c.InstallmentTotal = n
		c.InstallmentIndex = max(lc.InstallmentIndex.Int(), 1)
	}
	return c
}

func legacyStatement(ls LegacyStatement, cards []core.CreditCard) (core.Statement, bool) {
	ym := parseYearMonth(ls.ClosingYearMonth)
	if ym.IsZero() || ls.CardID == "" {
		return core.Statement{}, false
	}
	var card core.CreditCard
	found := false
	for _, c := range cards {
		if c.ID == ls.CardID || c.ID == legacyID("card", ls.CardID, 0) {
			card, found = c, true
			break
		}
	}
	if !found {
		return core.Statement{}, false
	}
	p := billing.CycleOf(card).ClosingIn(ym)
	st := core.Statement{
		ID:               records.StatementID(card.ID, ym.String()),
		CardID:           card.ID,
		ClosingYearMonth: ym,
		DueYearMonth:     p.DueYearMonth,
		CloseDate:        p.CloseDate,
		DueDate:          p.DueDate,
		PeriodStart:      p.PeriodStart,
		PeriodEnd:        p.PeriodEnd,
		Status:           core.StatementUnpaid,
	}
	if ls.Paid {
		st.Status = core.StatementPaid
		st.PaidAt = parseDate(ls.PaidAt)
		st.PaidAmount = float64(ls.PaidAmount)
	}
	return st, true
}

func legacyDebt(pos int, ld LegacyDebt) core.Debt {
	name := firstNonEmpty(ld.Name, ld.Creditor, "Debt "+strconv.Itoa(pos+1))
	count := ld.InstallmentsCount.Int()
	if count < 1 {
		count = ld.Installments.Int()
	}
	d := core.Debt{
		ID:                 legacyID("debt", ld.ID, pos, name),
		Name:               name,
		Creditor:           ld.Creditor,
		Category:           core.DebtCategory(firstNonEmpty(ld.Category, ld.Type, string(core.CategoryOther))),
		TotalAmount:        float64(ld.TotalAmount),
		RemainingAmount:    float64(ld.RemainingAmount),
		InstallmentsCount:  count,
		InstallmentAmount:  float64(ld.InstallmentAmount),
		MonthlyValue:       float64(ld.MonthlyValue),
		CurrentInstallment: ld.CurrentInstallment.Int(),
		DueDay:             clampDay(ld.DueDay.Int(), 0),
		StartYearMonth:     parseYearMonth(firstNonEmpty(ld.StartYearMonth, ld.StartDate)),
		FirstDueDate:       parseDate(ld.FirstDueDate),
		CreatedAt:          parseDate(ld.CreatedAt),
		Status:             core.DebtStatus(strings.ToLower(strings.TrimSpace(ld.Status))),
	}
	for _, p := range ld.Payments {
		if date := parseDate(p.Date); !date.IsZero() && p.Amount > 0 {
			d.Payments = append(d.Payments, core.DebtPayment{Date: date, Amount: float64(p.Amount)})
		}
	}
	return d
}

func legacyFixedExpense(pos int, lf LegacyFixedExpense) core.FixedExpense {
	name := firstNonEmpty(lf.Name, "Expense "+strconv.Itoa(pos+1))
	rec := core.Recurrence(strings.ToUpper(strings.TrimSpace(lf.Recurrence)))
	if !rec.IsValid() {
		rec = core.Monthly
	}
	fe := core.FixedExpense{
		ID:             legacyID("fixed", lf.ID, pos, name),
		Name:           name,
		Amount:         float64(lf.Amount),
		DueDay:         clampDay(lf.DueDay.Int(), 1),
		Category:       lf.Category,
		Recurrence:     rec,
		StartYearMonth: parseYearMonth(lf.StartYearMonth),
		EndYearMonth:   parseYearMonth(lf.EndYearMonth),
		AutoDebit:      bool(lf.AutoDebit),
	}
	for _, m := range lf.PaidMonths {
		ym := parseYearMonth(m)
		if ym.IsZero() {
			continue
		}
		fe.Executions = append(fe.Executions, core.Execution{
			YearMonth:  ym,
			Date:       ym.Date(fe.DueDay),
			AmountPaid: fe.Amount,
		})
	}
	return fe
}

func legacyIncome(pos int, li LegacyIncome) core.Income {
	name := firstNonEmpty(li.Name, "Income "+strconv.Itoa(pos+1))
	ym := parseYearMonth(firstNonEmpty(li.YearMonth, li.Month))
	in := core.Income{
		ID:            legacyID("income", li.ID, pos, name, ym.String()),
		Name:          name,
		Amount:        float64(li.Amount),
		YearMonth:     ym,
		ExpectedDay:   clampDay(li.ExpectedDay.Int(), 0),
		Guaranteed:    bool(li.Guaranteed),
		Status:        core.IncomeExpected,
		EffectiveDate: parseDate(li.EffectiveDate),
	}
	if bool(li.Received) || !in.EffectiveDate.IsZero() {
		in.Status = core.IncomeReceived
	}
	return in
}

func legacyBudget(pos int, lb LegacyBudget) core.BudgetCategory {
	name := firstNonEmpty(lb.Name, "Budget "+strconv.Itoa(pos+1))
	ym := parseYearMonth(lb.YearMonth)
	return core.BudgetCategory{
		ID:        legacyID("budget", lb.ID, pos, name, ym.String()),
		Name:      name,
		YearMonth: ym,
		Estimated: math.Max(0, float64(lb.Estimated)),
		Spent:     math.Max(0, float64(lb.Spent)),
	}
}
