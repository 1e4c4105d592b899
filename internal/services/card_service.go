package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"finanzas/internal/amqp"
	"finanzas/internal/billing"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/records"
)

// StatementPayment settles one statement.
type StatementPayment struct {
	Date       core.Date `json:"date"`
	Amount     float64   `json:"amount"`
	MovementID string    `json:"movementId,omitempty"`
}

// CardService manages cards, their consumptions and the statements derived
// from them. Statements are always rebuilt from scratch under a lock held
// per card and closing month.
type CardService struct {
	store       records.Set
	publisher   RecomputePublisher
	invalidator Invalidator
	logger      *log.Logger
	events      *log.StructuredLogger
	locks       keyedMutex
}

// NewCardService creates the card service. publisher and inv may be nil.
func NewCardService(store records.Set, publisher RecomputePublisher, inv Invalidator, logger *log.Logger) *CardService {
	if inv == nil {
		inv = nopInvalidator{}
	}
	l := logger.WithComponent(log.ComponentCards)
	return &CardService{
		store:       store,
		publisher:   publisher,
		invalidator: inv,
		logger:      l,
		events:      log.NewStructuredLogger(l),
	}
}

func (s *CardService) ListCards(ctx context.Context) ([]core.CreditCard, error) {
	return s.store.Cards.GetAll(ctx)
}

func (s *CardService) GetCard(ctx context.Context, id string) (core.CreditCard, error) {
	return s.store.Cards.GetByID(ctx, id)
}

// CreateCard stores a new card. A missing currency defaults to the local one.
func (s *CardService) CreateCard(ctx context.Context, card core.CreditCard) (core.CreditCard, error) {
	if card.ID == "" {
		card.ID = records.NewID()
	}
	card.Currency = core.NormalizeCurrency(string(card.Currency), core.DefaultCurrencies.Local)
	if err := card.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	if err := s.store.Cards.Put(ctx, card); err != nil {
		return core.CreditCard{}, fmt.Errorf("save card: %w", err)
	}

	s.logger.InfoContext(ctx, "Card created",
		log.FieldCardID, card.ID,
		log.FieldOperation, log.OpCreate)
	s.invalidator.Invalidate(ctx)
	return card, nil
}

// UpdateCard merges fields onto the card and rebuilds its statements, whose
// period bounds depend on the closing and due days.
func (s *CardService) UpdateCard(ctx context.Context, id string, fields map[string]any) (core.CreditCard, error) {
	card, err := s.store.Cards.GetByID(ctx, id)
	if err != nil {
		return core.CreditCard{}, err
	}
	card, err = records.Merge(card, fields)
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("%w: %v", core.ErrInvalidField, err)
	}
	if err := card.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	if err := s.store.Cards.Put(ctx, card); err != nil {
		return core.CreditCard{}, fmt.Errorf("save card: %w", err)
	}

	months, err := s.statementMonths(ctx, id)
	if err != nil {
		return card, err
	}
	for _, ym := range months {
		if _, err := s.RecomputeStatement(ctx, id, ym); err != nil {
			return card, err
		}
	}

	s.logger.InfoContext(ctx, "Card updated",
		log.FieldCardID, id,
		log.FieldOperation, log.OpUpdate)
	s.invalidator.Invalidate(ctx)
	return card, nil
}

// DeleteCard removes a card with its consumptions and statements.
func (s *CardService) DeleteCard(ctx context.Context, id string) error {
	if _, err := s.store.Cards.GetByID(ctx, id); err != nil {
		return err
	}

	consumptions, err := s.store.Consumptions.ListBy(ctx, records.IndexCardID, id)
	if err != nil {
		return fmt.Errorf("list consumptions: %w", err)
	}
	for _, c := range consumptions {
		if err := s.store.Consumptions.Delete(ctx, c.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("delete consumption %s: %w", c.ID, err)
		}
	}

	statements, err := s.store.Statements.ListBy(ctx, records.IndexCardID, id)
	if err != nil {
		return fmt.Errorf("list statements: %w", err)
	}
	for _, st := range statements {
		if err := s.store.Statements.Delete(ctx, st.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("delete statement %s: %w", st.ID, err)
		}
	}

	if err := s.store.Cards.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Card deleted",
		log.FieldCardID, id,
		log.FieldOperation, log.OpDelete,
		"consumptions", len(consumptions),
		"statements", len(statements))
	s.invalidator.Invalidate(ctx)
	return nil
}

// Periods returns the statement closing in ym and the one due in ym.
func (s *CardService) Periods(ctx context.Context, cardID string, ym core.YearMonth) (closing, due billing.Period, err error) {
	card, err := s.store.Cards.GetByID(ctx, cardID)
	if err != nil {
		return billing.Period{}, billing.Period{}, err
	}
	cycle := billing.CycleOf(card)
	return cycle.ClosingIn(ym), cycle.DueIn(ym), nil
}

// AddConsumption records a purchase on a card, expanding it into one
// consumption per installment, and rebuilds the affected statements.
func (s *CardService) AddConsumption(ctx context.Context, cardID string, in billing.PurchaseInput) ([]core.CardConsumption, error) {
	card, err := s.store.Cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	in.Currency = core.NormalizeCurrency(string(in.Currency), card.Currency)

	created, err := billing.ExpandConsumption(in, card, records.NewID)
	if err != nil {
		return nil, err
	}
	for _, c := range created {
		if err := s.store.Consumptions.Put(ctx, c); err != nil {
			return nil, fmt.Errorf("save consumption: %w", err)
		}
	}

	months := make([]core.YearMonth, 0, len(created))
	for _, c := range created {
		months = append(months, c.ClosingYearMonth)
	}
	if err := s.refresh(ctx, cardID, amqp.ReasonConsumptionCreated, months...); err != nil {
		return created, err
	}

	first := created[0]
	s.events.LogConsumptionCreated(ctx, cardID, first.ClosingYearMonth.String(), in.Amount, string(in.Currency), max(in.Installments, 1))
	return created, nil
}

// EditConsumption merges fields onto a consumption and reassigns its
// statement from the purchase date. Installment siblings are left as they
// are. A cardId other than the current one is rejected.
func (s *CardService) EditConsumption(ctx context.Context, id string, fields map[string]any) (core.CardConsumption, error) {
	old, err := s.store.Consumptions.GetByID(ctx, id)
	if err != nil {
		return core.CardConsumption{}, err
	}
	if v, ok := fields["cardId"]; ok {
		if cardID, _ := v.(string); cardID != old.CardID {
			return core.CardConsumption{}, fmt.Errorf("%w: cardId cannot be changed", core.ErrInvalidField)
		}
	}
	card, err := s.store.Cards.GetByID(ctx, old.CardID)
	if err != nil {
		return core.CardConsumption{}, err
	}

	c, err := records.Merge(old, fields)
	if err != nil {
		return core.CardConsumption{}, fmt.Errorf("%w: %v", core.ErrInvalidField, err)
	}
	c.CardID = old.CardID
	c.Currency = core.NormalizeCurrency(string(c.Currency), card.Currency)
	c = billing.Reassign(c, card)
	if err := c.Validate(); err != nil {
		return core.CardConsumption{}, err
	}
	if err := s.store.Consumptions.Put(ctx, c); err != nil {
		return core.CardConsumption{}, fmt.Errorf("save consumption: %w", err)
	}

	if err := s.refresh(ctx, c.CardID, amqp.ReasonConsumptionUpdated, old.ClosingYearMonth, c.ClosingYearMonth); err != nil {
		return c, err
	}
	s.logger.InfoContext(ctx, "Consumption updated",
		log.FieldConsumptionID, id,
		log.FieldCardID, c.CardID,
		log.FieldYearMonth, c.ClosingYearMonth.String(),
		log.FieldOperation, log.OpUpdate)
	return c, nil
}

// DeleteConsumption removes one consumption and rebuilds its statement.
func (s *CardService) DeleteConsumption(ctx context.Context, id string) error {
	c, err := s.store.Consumptions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Consumptions.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.refresh(ctx, c.CardID, amqp.ReasonConsumptionDeleted, c.ClosingYearMonth); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Consumption deleted",
		log.FieldConsumptionID, id,
		log.FieldCardID, c.CardID,
		log.FieldOperation, log.OpDelete)
	return nil
}

// Consumptions lists the consumptions of a card closing in ym, or all of
// them when ym is zero.
func (s *CardService) Consumptions(ctx context.Context, cardID string, ym core.YearMonth) ([]core.CardConsumption, error) {
	all, err := s.store.Consumptions.ListBy(ctx, records.IndexCardID, cardID)
	if err != nil {
		return nil, err
	}
	if ym.IsZero() {
		return all, nil
	}
	out := all[:0]
	for _, c := range all {
		if c.ClosingYearMonth == ym {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CardService) Statements(ctx context.Context, cardID string) ([]core.Statement, error) {
	out, err := s.store.Statements.ListBy(ctx, records.IndexCardID, cardID)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClosingYearMonth.Before(out[j].ClosingYearMonth) })
	return out, nil
}

// RecomputeStatement rebuilds the statement of cardID closing in closingYM
// from the stored consumptions, keeping its payment fields. A month with no
// consumptions and no stored statement is returned without being saved.
func (s *CardService) RecomputeStatement(ctx context.Context, cardID string, closingYM core.YearMonth) (core.Statement, error) {
	unlock := s.locks.Lock(cardID + "|" + closingYM.String())
	defer unlock()
	return s.recompute(ctx, cardID, closingYM)
}

func (s *CardService) recompute(ctx context.Context, cardID string, closingYM core.YearMonth) (core.Statement, error) {
	card, err := s.store.Cards.GetByID(ctx, cardID)
	if err != nil {
		return core.Statement{}, err
	}
	consumptions, err := s.store.Consumptions.ListBy(ctx, records.IndexCardID, cardID)
	if err != nil {
		return core.Statement{}, fmt.Errorf("list consumptions: %w", err)
	}
	existing, err := s.findStatement(ctx, cardID, closingYM)
	if err != nil {
		return core.Statement{}, err
	}

	st := billing.BuildStatement(card, closingYM, consumptions, existing, records.StatementID(cardID, closingYM.String()))
	if existing == nil && !hasMonth(consumptions, closingYM) {
		return st, nil
	}
	if err := s.store.Statements.Put(ctx, st); err != nil {
		return core.Statement{}, fmt.Errorf("save statement: %w", err)
	}

	s.logger.DebugContext(ctx, "Statement recomputed",
		log.FieldStatementID, st.ID,
		log.FieldCardID, cardID,
		log.FieldYearMonth, closingYM.String(),
		log.FieldAmount, st.TotalAmount,
		log.FieldOperation, log.OpRecompute)
	return st, nil
}

// Reconcile rebuilds every statement month of every card and returns the
// number of statements rebuilt. It recovers totals after missed events.
func (s *CardService) Reconcile(ctx context.Context) (int, error) {
	cards, err := s.store.Cards.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list cards: %w", err)
	}
	rebuilt := 0
	for _, card := range cards {
		months, err := s.statementMonths(ctx, card.ID)
		if err != nil {
			return rebuilt, fmt.Errorf("statement months of %s: %w", card.ID, err)
		}
		for _, ym := range months {
			if err := ctx.Err(); err != nil {
				return rebuilt, err
			}
			if _, err := s.RecomputeStatement(ctx, card.ID, ym); err != nil {
				return rebuilt, err
			}
			rebuilt++
		}
	}
	if rebuilt > 0 {
		s.invalidator.Invalidate(ctx)
	}
	s.logger.InfoContext(ctx, "Statements reconciled",
		"cards", len(cards),
		"statements", rebuilt,
		log.FieldOperation, log.OpRecompute)
	return rebuilt, nil
}

// MarkStatementPaid records the payment of the statement closing in
// closingYM. A zero amount means the statement total.
func (s *CardService) MarkStatementPaid(ctx context.Context, cardID string, closingYM core.YearMonth, p StatementPayment) (core.Statement, error) {
	if p.Amount < 0 {
		return core.Statement{}, core.ErrInvalidAmount
	}
	if err := p.Date.Validate(); err != nil {
		return core.Statement{}, err
	}

	unlock := s.locks.Lock(cardID + "|" + closingYM.String())
	defer unlock()

	st, err := s.recompute(ctx, cardID, closingYM)
	if err != nil {
		return core.Statement{}, err
	}
	st.Status = core.StatementPaid
	st.PaidAt = p.Date
	st.PaidAmount = p.Amount
	if st.PaidAmount == 0 {
		st.PaidAmount = st.TotalAmount
	}
	st.PaymentMovementID = p.MovementID
	if err := s.store.Statements.Put(ctx, st); err != nil {
		return core.Statement{}, fmt.Errorf("save statement: %w", err)
	}

	s.logger.InfoContext(ctx, "Statement paid",
		log.FieldStatementID, st.ID,
		log.FieldCardID, cardID,
		log.FieldYearMonth, closingYM.String(),
		log.FieldAmount, st.PaidAmount,
		log.FieldOperation, log.OpPay)
	s.invalidator.Invalidate(ctx)
	return st, nil
}

// refresh rebuilds the given months, announces them for reconciliation and
// drops cached views. A failed publish is logged only; the statement has
// already been rebuilt locally.
func (s *CardService) refresh(ctx context.Context, cardID, reason string, months ...core.YearMonth) error {
	seen := map[core.YearMonth]bool{}
	for _, ym := range months {
		if seen[ym] {
			continue
		}
		seen[ym] = true
		if _, err := s.RecomputeStatement(ctx, cardID, ym); err != nil {
			return err
		}
		if s.publisher == nil {
			continue
		}
		if err := s.publisher.PublishStatementRecompute(ctx, cardID, ym.String(), reason); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish statement recompute",
				log.FieldCardID, cardID,
				log.FieldYearMonth, ym.String(),
				log.FieldError, err)
		}
	}
	s.invalidator.Invalidate(ctx)
	return nil
}

func (s *CardService) findStatement(ctx context.Context, cardID string, ym core.YearMonth) (*core.Statement, error) {
	sts, err := s.store.Statements.ListBy(ctx, records.IndexCardID, cardID)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	for i := range sts {
		if sts[i].ClosingYearMonth == ym {
			return &sts[i], nil
		}
	}
	return nil, nil
}

// statementMonths lists every closing month with a statement or consumptions.
func (s *CardService) statementMonths(ctx context.Context, cardID string) ([]core.YearMonth, error) {
	seen := map[core.YearMonth]bool{}
	sts, err := s.store.Statements.ListBy(ctx, records.IndexCardID, cardID)
	if err != nil {
		return nil, err
	}
	for _, st := range sts {
		seen[st.ClosingYearMonth] = true
	}
	cs, err := s.store.Consumptions.ListBy(ctx, records.IndexCardID, cardID)
	if err != nil {
		return nil, err
	}
	for _, c := range cs {
		seen[c.ClosingYearMonth] = true
	}

	out := make([]core.YearMonth, 0, len(seen))
	for ym := range seen {
		out = append(out, ym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func hasMonth(cs []core.CardConsumption, ym core.YearMonth) bool {
	for _, c := range cs {
		if c.ClosingYearMonth == ym {
			return true
		}
	}
	return false
}
