package ics

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/records/memory"
)

func ym(s string) core.YearMonth {
	v, err := core.ParseYearMonth(s)
	if err != nil {
		panic(err)
	}
	return v
}

func date(s string) core.Date {
	v, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestStatementEvents(t *testing.T) {
	cards := []core.CreditCard{{ID: "c1", Bank: "Galicia", Name: "Visa", Currency: core.ARS}}
	statements := []core.Statement{
		{ID: "s-jan", CardID: "c1", DueYearMonth: ym("2024-02"), DueDate: date("2024-02-10"), TotalAmount: 500},
		{ID: "s-feb", CardID: "c1", DueYearMonth: ym("2024-03"), DueDate: date("2024-03-10"), TotalAmount: 0},
		{ID: "s-old", CardID: "c1", DueYearMonth: ym("2023-12"), DueDate: date("2023-12-10"), TotalAmount: 80},
		{ID: "s-orphan", CardID: "gone", DueYearMonth: ym("2024-02"), DueDate: date("2024-02-10"), TotalAmount: 80},
	}

	got := StatementEvents(cards, statements, ym("2024-01"), ym("2024-03"))
	if len(got) != 1 {
		t.Fatalf("events = %+v, want only s-jan", got)
	}
	e := got[0]
	if e.UID != "statement-s-jan@finanzas" || !e.Date.Equal(date("2024-02-10").Time) {
		t.Errorf("event = %+v", e)
	}
	if e.Summary != "Galicia Visa statement due" {
		t.Errorf("summary = %q", e.Summary)
	}
}

func TestDebtEvents(t *testing.T) {
	debts := []core.Debt{
		{ID: "loan", Name: "Prestamo", TotalAmount: 1200, InstallmentsCount: 12, InstallmentAmount: 100, DueDay: 31, StartYearMonth: ym("2024-01"), Status: core.DebtActive},
		{ID: "done", Name: "Viejo", TotalAmount: 100, InstallmentsCount: 10, InstallmentAmount: 10, DueDay: 5, StartYearMonth: ym("2024-01"), Status: core.DebtCompleted},
		{ID: "card", Name: "Saldo", TotalAmount: 100, InstallmentsCount: 10, InstallmentAmount: 10, DueDay: 5, StartYearMonth: ym("2024-01"), Category: core.CategoryCreditCard},
	}

	got := DebtEvents(debts, ym("2024-02"), ym("2024-03"))
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2 installments of the active loan", len(got))
	}
	if got[0].Summary != "Prestamo installment 2/12" {
		t.Errorf("summary = %q", got[0].Summary)
	}
	if !got[0].Date.Equal(date("2024-02-29").Time) {
		t.Errorf("due date = %s, want clamped 2024-02-29", got[0].Date)
	}
	if got[1].UID != "debt-loan-2024-03@finanzas" {
		t.Errorf("uid = %q", got[1].UID)
	}
}

func TestExpenseEvents(t *testing.T) {
	expenses := []core.FixedExpense{
		{ID: "rent", Name: "Alquiler", Amount: 300, DueDay: 10, Recurrence: core.Monthly, StartYearMonth: ym("2024-01"),
			Executions: []core.Execution{{YearMonth: ym("2024-02"), Date: date("2024-02-09"), AmountPaid: 300}}},
		{ID: "fee", Name: "Matricula", Amount: 50, DueDay: 15, Recurrence: core.Once, StartYearMonth: ym("2024-03"), EndYearMonth: ym("2024-03")},
		{ID: "later", Name: "Seguro", Amount: 20, DueDay: 1, Recurrence: core.Monthly, StartYearMonth: ym("2025-01")},
	}

	got := ExpenseEvents(expenses, ym("2024-02"), ym("2024-03"))
	if len(got) != 3 {
		t.Fatalf("events = %+v, want rent twice and the one-off fee", got)
	}
	if !strings.Contains(got[0].Description, "paid 300.00 on 2024-02-09") {
		t.Errorf("description = %q", got[0].Description)
	}
	if got[2].Summary != "Matricula" || !got[2].Date.Equal(date("2024-03-15").Time) {
		t.Errorf("one-off event = %+v", got[2])
	}
}

func TestFeed_Write(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	if err := store.FixedExpenses.Put(ctx, core.FixedExpense{
		ID: "rent", Name: "Alquiler", Amount: 300, DueDay: 10, Recurrence: core.Monthly, StartYearMonth: ym("2024-01"),
	}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Debts.Put(ctx, core.Debt{
		ID: "loan", Name: "Prestamo", TotalAmount: 600, InstallmentsCount: 6, InstallmentAmount: 100, DueDay: 5,
		StartYearMonth: ym("2024-01"), Status: core.DebtActive,
	}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	feed := NewFeed(store, log.Discard())
	feed.now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }

	events, err := feed.Events(ctx, ym("2024-01"), 2)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	wantOrder := []string{"debt-loan-2024-01@finanzas", "fixed-rent-2024-01@finanzas", "debt-loan-2024-02@finanzas", "fixed-rent-2024-02@finanzas"}
	if len(events) != len(wantOrder) {
		t.Fatalf("events = %d, want %d", len(events), len(wantOrder))
	}
	for i, uid := range wantOrder {
		if events[i].UID != uid {
			t.Errorf("events[%d] = %s, want %s", i, events[i].UID, uid)
		}
	}

	var buf bytes.Buffer
	if err := feed.Write(ctx, &buf, ym("2024-01"), 2); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:" + productID,
		"UID:fixed-rent-2024-01@finanzas",
		"DTSTART;VALUE=DATE:20240110",
		"DTEND;VALUE=DATE:20240111",
		"SUMMARY:Prestamo installment 2/6",
		"DTSTAMP:20240115T120000Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("calendar missing %q", want)
		}
	}
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 4 {
		t.Errorf("VEVENT count = %d, want 4", got)
	}
}

func TestFeed_EventsRejectsBadRange(t *testing.T) {
	feed := NewFeed(memory.New(), log.Discard())
	tests := []struct {
		name   string
		from   core.YearMonth
		months int
	}{
		{"zero month", core.YearMonth{}, 3},
		{"no months", ym("2024-01"), 0},
		{"too many", ym("2024-01"), MaxMonths + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := feed.Events(context.Background(), tt.from, tt.months)
			if !core.IsValidation(err) {
				t.Errorf("Events() error = %v, want validation error", err)
			}
			if err == nil || errors.Is(err, core.ErrNotFound) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}
