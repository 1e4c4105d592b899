// Package worker consumes statement recompute events and runs the
// background jobs of the worker process.
package worker

import (
	"context"
	"errors"
	"fmt"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/log"
)

// StatementRecomputer rebuilds statements from stored consumptions.
type StatementRecomputer interface {
	RecomputeStatement(ctx context.Context, cardID string, closingYM core.YearMonth) (core.Statement, error)
	Reconcile(ctx context.Context) (int, error)
}

// RecomputeWorker handles statement recompute messages.
type RecomputeWorker struct {
	cards  StatementRecomputer
	logger *log.Logger
}

func NewRecomputeWorker(cards StatementRecomputer, logger *log.Logger) *RecomputeWorker {
	return &RecomputeWorker{
		cards:  cards,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRecomputeMessage rebuilds the statement named by msg. A card that no
// longer exists is acknowledged and skipped; any other error requeues.
func (w *RecomputeWorker) HandleRecomputeMessage(ctx context.Context, msg *amqp.StatementRecomputeMessage) error {
	w.logger.InfoContext(ctx, "Processing recompute message",
		log.FieldCardID, msg.CardID,
		log.FieldYearMonth, msg.ClosingYearMonth,
		"reason", msg.Reason)

	ym, err := core.ParseYearMonth(msg.ClosingYearMonth)
	if err != nil {
		w.logger.WarnContext(ctx, "Dropping recompute message with bad month",
			log.FieldCardID, msg.CardID,
			log.FieldError, err)
		return nil
	}

	st, err := w.cards.RecomputeStatement(ctx, msg.CardID, ym)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.logger.WarnContext(ctx, "Card no longer exists, skipping recompute",
				log.FieldCardID, msg.CardID,
				log.FieldYearMonth, msg.ClosingYearMonth)
			return nil
		}
		return fmt.Errorf("recompute statement: %w", err)
	}

	w.logger.InfoContext(ctx, "Statement reconciled",
		log.FieldStatementID, st.ID,
		log.FieldAmount, st.TotalAmount)
	return nil
}

// StartupReconcile rebuilds every statement once at worker start. It
// recovers totals for events published while the worker was down.
func (w *RecomputeWorker) StartupReconcile(ctx context.Context) error {
	n, err := w.cards.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("startup reconcile: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup reconcile completed", "statements", n)
	return nil
}
