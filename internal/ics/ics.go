// Package ics renders upcoming payment dates as an iCalendar feed: card
// statement due dates, debt installments and fixed expenses, each as an
// all-day event.
package ics

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/emersion/go-ical"

	"finanzas/internal/amortization"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/records"
	"finanzas/internal/recurrence"
)

// MaxMonths bounds the range of one feed.
const MaxMonths = 24

const productID = "-//Finanzas//Payment Calendar//ES"

// Event kinds.
const (
	KindStatement       = "statement"
	KindDebtInstallment = "debt_installment"
	KindFixedExpense    = "fixed_expense"
)

// Event is one payment date.
type Event struct {
	UID         string
	Kind        string
	Date        core.Date
	Summary     string
	Description string
	Amount      float64
}

// Feed loads records and renders them as a calendar.
type Feed struct {
	store  records.Set
	now    func() time.Time
	logger *log.Logger
}

func NewFeed(store records.Set, logger *log.Logger) *Feed {
	return &Feed{
		store:  store,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentCalendar),
	}
}

// Events lists the payment dates of months consecutive months starting at
// from, ordered by date.
func (f *Feed) Events(ctx context.Context, from core.YearMonth, months int) ([]Event, error) {
	if from.IsZero() {
		return nil, core.ErrInvalidYearMonth
	}
	if months < 1 || months > MaxMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d", core.ErrInvalidField, MaxMonths)
	}
	to := from.AddMonths(months - 1)

	cards, err := f.store.Cards.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	statements, err := f.store.Statements.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	debts, err := f.store.Debts.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	expenses, err := f.store.FixedExpenses.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fixed expenses: %w", err)
	}

	events := StatementEvents(cards, statements, from, to)
	events = append(events, DebtEvents(debts, from, to)...)
	events = append(events, ExpenseEvents(expenses, from, to)...)
	sortEvents(events)
	return events, nil
}

// Write encodes the feed for the given range to w.
func (f *Feed) Write(ctx context.Context, w io.Writer, from core.YearMonth, months int) error {
	events, err := f.Events(ctx, from, months)
	if err != nil {
		return err
	}
	if err := ical.NewEncoder(w).Encode(Calendar(events, f.now())); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	f.logger.DebugContext(ctx, "Calendar rendered",
		log.FieldYearMonth, from.String(),
		"months", months,
		"events", len(events))
	return nil
}

// Calendar builds the VCALENDAR for events. stamp is used as DTSTAMP.
func Calendar(events []Event, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText("X-WR-CALNAME", "Finanzas")

	for _, e := range events {
		vevent := ical.NewEvent()
		vevent.Props.SetText(ical.PropUID, e.UID)
		vevent.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		vevent.Props.SetDate(ical.PropDateTimeStart, e.Date.Time)
		vevent.Props.SetDate(ical.PropDateTimeEnd, e.Date.AddDays(1).Time)
		vevent.Props.SetText(ical.PropSummary, e.Summary)
		if e.Description != "" {
			vevent.Props.SetText(ical.PropDescription, e.Description)
		}
		vevent.Props.SetText(ical.PropCategories, e.Kind)
		cal.Children = append(cal.Children, vevent.Component)
	}
	return cal
}

// StatementEvents lists stored statements falling due within [from, to]
// that have something to pay.
func StatementEvents(cards []core.CreditCard, statements []core.Statement, from, to core.YearMonth) []Event {
	byID := make(map[string]core.CreditCard, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	var out []Event
	for _, st := range statements {
		if st.TotalAmount <= 0 || st.DueYearMonth.Before(from) || st.DueYearMonth.After(to) {
			continue
		}
		card, ok := byID[st.CardID]
		if !ok {
			continue
		}
		desc := fmt.Sprintf("Total %.2f %s, closed %s", st.TotalAmount, card.Currency, st.CloseDate)
		if st.Status == core.StatementPaid {
			desc += fmt.Sprintf(", paid %s", st.PaidAt)
		}
		out = append(out, Event{
			UID:         "statement-" + st.ID + "@finanzas",
			Kind:        KindStatement,
			Date:        st.DueDate,
			Summary:     fmt.Sprintf("%s %s statement due", card.Bank, card.Name),
			Description: desc,
			Amount:      st.TotalAmount,
		})
	}
	return out
}

// DebtEvents lists the installments of open debts falling within [from, to].
// Debts mirroring a card balance are left out; their statements already
// carry the date.
func DebtEvents(debts []core.Debt, from, to core.YearMonth) []Event {
	var out []Event
	for _, d := range debts {
		for ym := from; !ym.After(to); ym = ym.AddMonths(1) {
			amount := amortization.InstallmentForMonth(d, ym)
			if amount <= 0 {
				continue
			}
			n := amortization.InstallmentNumber(d, ym)
			out = append(out, Event{
				UID:         fmt.Sprintf("debt-%s-%s@finanzas", d.ID, ym),
				Kind:        KindDebtInstallment,
				Date:        amortization.DueDate(d, ym),
				Summary:     fmt.Sprintf("%s installment %d/%d", d.Name, n, d.InstallmentsCount),
				Description: fmt.Sprintf("Installment %.2f, paid this month %.2f", amount, amortization.PaymentsInMonth(d, ym)),
				Amount:      amount,
			})
		}
	}
	return out
}

// ExpenseEvents lists the scheduled dates of fixed expenses active within
// [from, to].
func ExpenseEvents(expenses []core.FixedExpense, from, to core.YearMonth) []Event {
	var out []Event
	for _, fe := range expenses {
		for ym := from; !ym.After(to); ym = ym.AddMonths(1) {
			if !recurrence.ActiveIn(fe, ym) {
				continue
			}
			desc := fmt.Sprintf("Amount %.2f", fe.Amount)
			if exec, ok := recurrence.ExecutionForMonth(fe, ym); ok {
				desc += fmt.Sprintf(", paid %.2f on %s", exec.AmountPaid, exec.Date)
			} else if fe.AutoDebit {
				desc += ", automatic debit"
			}
			out = append(out, Event{
				UID:         fmt.Sprintf("fixed-%s-%s@finanzas", fe.ID, ym),
				Kind:        KindFixedExpense,
				Date:        recurrence.ScheduledDate(fe, ym),
				Summary:     fe.Name,
				Description: desc,
				Amount:      fe.Amount,
			})
		}
	}
	return out
}

func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date.Time) {
			return events[i].Date.Before(events[j].Date.Time)
		}
		return events[i].UID < events[j].UID
	})
}
