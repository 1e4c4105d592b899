package migration

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/records"
	"finanzas/internal/records/memory"
)

const legacyDoc = `{
  "cards": [
    {
      "id": "visa-1", "bank": "Galicia", "name": "Visa", "currency": "$",
      "closingDay": "25", "dueDay": 10,
      "consumptions": [
        {"id": "c1", "description": "Groceries", "amount": "1.234,50", "date": "2024-01-20"},
        {"id": "c2", "description": "Flight", "amount": 300, "currency": "U$S", "date": "2024-01-28"},
        {"description": "TV 2/3", "amount": 100, "date": "2024-01-10", "installments": 3, "installmentIndex": 2},
        {"description": "broken", "amount": "abc"}
      ]
    }
  ],
  "statements": [
    {"cardId": "visa-1", "closingYearMonth": "2024-01", "paid": "si", "paidAt": "2024-02-09", "paidAmount": 1234.5}
  ],
  "debts": [
    {"name": "Car", "type": "loan", "totalAmount": 120000, "installments": 12, "firstDueDate": "2024-01-15"},
    {"name": "Mom", "category": "personal", "totalAmount": 5000, "monthlyValue": 1000, "createdAt": "2024-03-07T10:00:00Z", "currentInstallment": 2},
    {"name": "Weird", "category": "???", "totalAmount": 10, "installmentsCount": 1}
  ],
  "fixedExpenses": [
    {"name": "Rent", "amount": 500, "dueDay": 5, "recurrence": "monthly", "startYearMonth": "2024-01", "paidMonths": ["2024-01"]}
  ],
  "incomes": [
    {"name": "Salary", "amount": 3000, "month": "2024-01", "expectedDay": 1, "received": true}
  ],
  "budgets": [
    {"name": "Food", "yearMonth": "2024-01", "estimated": 200, "spent": "150"}
  ]
}`

func newStore(t *testing.T, legacy string) records.Set {
	t.Helper()
	s := memory.New()
	if legacy != "" {
		if err := s.Legacy.StageLegacyDocument(context.Background(), LegacySource, []byte(legacy)); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestPipelineMigratesLegacyStore(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, legacyDoc)

	if err := NewPipeline(store, log.Discard()).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, m := range []string{MarkerLegacyImport, MarkerClosingMonths, MarkerDebts} {
		if v, ok, _ := store.Markers.Marker(ctx, m); !ok || v == "" {
			t.Errorf("marker %s not set", m)
		}
	}

	cards, _ := store.Cards.GetAll(ctx)
	if len(cards) != 1 || cards[0].ClosingDay != 25 || cards[0].Currency != core.ARS {
		t.Fatalf("cards = %+v", cards)
	}
	cardID := cards[0].ID

	consumptions, _ := store.Consumptions.GetAll(ctx)
	if len(consumptions) != 4 {
		t.Fatalf("got %d consumptions, want 4", len(consumptions))
	}
	want := []struct {
		amount   float64
		currency core.Currency
		closing  string
	}{
		{1234.5, core.ARS, "2024-01"},
		{300, core.USD, "2024-02"},
		{100, core.ARS, "2024-02"},
		{0, core.ARS, ""},
	}
	for i, w := range want {
		c := consumptions[i]
		if c.Amount != w.amount || c.Currency != w.currency || c.ClosingYearMonth.String() != w.closing {
			t.Errorf("consumption %d = %v %s %s, want %v %s %s",
				i, c.Amount, c.Currency, c.ClosingYearMonth, w.amount, w.currency, w.closing)
		}
	}

	jan, err := store.Statements.GetByID(ctx, records.StatementID(cardID, "2024-01"))
	if err != nil {
		t.Fatalf("January statement: %v", err)
	}
	if jan.TotalAmount != 1234.5 || jan.Status != core.StatementPaid || jan.PaidAmount != 1234.5 {
		t.Errorf("January statement = %+v", jan)
	}
	feb, err := store.Statements.GetByID(ctx, records.StatementID(cardID, "2024-02"))
	if err != nil {
		t.Fatalf("February statement: %v", err)
	}
	if feb.TotalAmount != 400 || feb.Status != core.StatementUnpaid {
		t.Errorf("February statement = %+v", feb)
	}

	debts, _ := store.Debts.GetAll(ctx)
	if len(debts) != 3 {
		t.Fatalf("got %d debts", len(debts))
	}
	car, mom, weird := debts[0], debts[1], debts[2]
	if car.Category != core.CategoryBankLoan || car.InstallmentAmount != 10000 || car.DueDay != 15 || car.StartYearMonth.String() != "2024-01" {
		t.Errorf("car = %+v", car)
	}
	if mom.Category != core.CategoryFamily || mom.InstallmentsCount != 5 || mom.InstallmentAmount != 1000 ||
		mom.DueDay != 7 || mom.StartYearMonth.String() != "2024-02" {
		t.Errorf("mom = %+v", mom)
	}
	if weird.Category != core.CategoryOther || weird.Status != core.DebtActive {
		t.Errorf("weird = %+v", weird)
	}

	expenses, _ := store.FixedExpenses.GetAll(ctx)
	if len(expenses) != 1 || expenses[0].Recurrence != core.Monthly || len(expenses[0].Executions) != 1 {
		t.Errorf("fixed expenses = %+v", expenses)
	}
	incomes, _ := store.Incomes.ListBy(ctx, records.IndexYearMonth, "2024-01")
	if len(incomes) != 1 || incomes[0].Status != core.IncomeReceived {
		t.Errorf("incomes = %+v", incomes)
	}
	budgets, _ := store.Budgets.ListBy(ctx, records.IndexYearMonth, "2024-01")
	if len(budgets) != 1 || budgets[0].Spent != 150 {
		t.Errorf("budgets = %+v", budgets)
	}
}

func snapshot(t *testing.T, s records.Set) Dataset {
	t.Helper()
	d, err := Load(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	d.Legacy = nil
	return d
}

func TestPipelineRunTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, legacyDoc)
	p := NewPipeline(store, log.Discard())

	if err := p.Run(ctx); err != nil {
		t.Fatal(err)
	}
	first := snapshot(t, store)
	if err := p.Run(ctx); err != nil {
		t.Fatal(err)
	}
	second := snapshot(t, store)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second run changed records:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestStepsAreIndividuallyIdempotent(t *testing.T) {
	lg, err := ParseLegacyStore([]byte(legacyDoc))
	if err != nil {
		t.Fatal(err)
	}
	data := Dataset{Legacy: lg}
	for _, step := range Steps() {
		once, err := step.Apply(data, Markers{})
		if err != nil {
			t.Fatalf("%s: %v", step.Name, err)
		}
		twice, err := step.Apply(once.Data, once.Markers)
		if err != nil {
			t.Fatalf("%s second apply: %v", step.Name, err)
		}
		if !reflect.DeepEqual(once.Data, twice.Data) {
			t.Errorf("%s is not idempotent", step.Name)
		}
		if once.Markers[step.Marker] == "" {
			t.Errorf("%s did not report its marker", step.Name)
		}
		data = once.Data
	}
}

func TestPipelineFreshInstallOnlySetsMarkers(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, "")
	if err := NewPipeline(store, log.Discard()).Run(ctx); err != nil {
		t.Fatal(err)
	}
	for _, m := range []string{MarkerLegacyImport, MarkerClosingMonths, MarkerDebts} {
		if _, ok, _ := store.Markers.Marker(ctx, m); !ok {
			t.Errorf("marker %s not set", m)
		}
	}
	cards, _ := store.Cards.GetAll(ctx)
	if len(cards) != 0 {
		t.Errorf("cards = %+v", cards)
	}
}

func TestPipelineSkipsAppliedSteps(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, legacyDoc)
	if err := store.Markers.SetMarker(ctx, MarkerLegacyImport, "true"); err != nil {
		t.Fatal(err)
	}
	if err := NewPipeline(store, log.Discard()).Run(ctx); err != nil {
		t.Fatal(err)
	}
	cards, _ := store.Cards.GetAll(ctx)
	if len(cards) != 0 {
		t.Errorf("legacy import ran despite its marker: %d cards", len(cards))
	}
}

type failingCards struct {
	records.Table[core.CreditCard]
}

func (failingCards) Put(context.Context, core.CreditCard) error {
	return errors.New("disk full")
}

func TestPipelineFailureLeavesMarkerUnset(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, legacyDoc)
	store.Cards = failingCards{store.Cards}

	if err := NewPipeline(store, log.Discard()).Run(ctx); err == nil {
		t.Fatal("expected error")
	}
	for _, m := range []string{MarkerLegacyImport, MarkerClosingMonths, MarkerDebts} {
		if _, ok, _ := store.Markers.Marker(ctx, m); ok {
			t.Errorf("marker %s set after failure", m)
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := map[string]core.DebtCategory{
		"loan":        core.CategoryBankLoan,
		"Personal":    core.CategoryFamily,
		" tarjeta ":   core.CategoryCreditCard,
		"hipoteca":    core.CategoryMortgage,
		"credit_card": core.CategoryCreditCard,
		"":            core.CategoryOther,
		"casino":      core.CategoryOther,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := NormalizeCategory(in); got != want {
				t.Errorf("NormalizeCategory(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestNumberDecoding(t *testing.T) {
	var v struct {
		A, B, C, D, E Number
	}
	doc := `{"A": 12.5, "B": "1.234,56", "C": "7", "D": "n/a", "E": null}`
	if err := jsonUnmarshal(doc, &v); err != nil {
		t.Fatal(err)
	}
	if v.A != 12.5 || v.B != 1234.56 || v.C != 7 || v.D != 0 || v.E != 0 {
		t.Errorf("decoded = %+v", v)
	}
}
