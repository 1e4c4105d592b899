package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/log"
)

type fakeRecomputer struct {
	calls     []string
	err       error
	reconcile int
}

func (f *fakeRecomputer) RecomputeStatement(_ context.Context, cardID string, ym core.YearMonth) (core.Statement, error) {
	f.calls = append(f.calls, cardID+"|"+ym.String())
	if f.err != nil {
		return core.Statement{}, f.err
	}
	return core.Statement{ID: "st-" + cardID, CardID: cardID, ClosingYearMonth: ym, TotalAmount: 10}, nil
}

func (f *fakeRecomputer) Reconcile(context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.reconcile, nil
}

func TestRecomputeWorker_HandleRecomputeMessage(t *testing.T) {
	tests := []struct {
		name      string
		msg       *amqp.StatementRecomputeMessage
		err       error
		wantErr   bool
		wantCalls int
	}{
		{
			name:      "recomputes named statement",
			msg:       amqp.NewStatementRecomputeMessage("card-1", "2024-02", amqp.ReasonConsumptionCreated),
			wantCalls: 1,
		},
		{
			name:      "bad month is dropped",
			msg:       &amqp.StatementRecomputeMessage{CardID: "card-1", ClosingYearMonth: "2024/02"},
			wantCalls: 0,
		},
		{
			name:      "deleted card is skipped",
			msg:       amqp.NewStatementRecomputeMessage("gone", "2024-02", amqp.ReasonConsumptionDeleted),
			err:       fmt.Errorf("get card: %w", core.ErrNotFound),
			wantCalls: 1,
		},
		{
			name:      "store failure requeues",
			msg:       amqp.NewStatementRecomputeMessage("card-1", "2024-02", amqp.ReasonReconcile),
			err:       errors.New("disk full"),
			wantErr:   true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecomputer{err: tt.err}
			w := NewRecomputeWorker(rec, log.Discard())

			err := w.HandleRecomputeMessage(context.Background(), tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HandleRecomputeMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(rec.calls) != tt.wantCalls {
				t.Errorf("calls = %v, want %d", rec.calls, tt.wantCalls)
			}
			if tt.wantCalls == 1 && rec.calls[0] != tt.msg.CardID+"|2024-02" {
				t.Errorf("call = %s", rec.calls[0])
			}
		})
	}
}

func TestRecomputeWorker_StartupReconcile(t *testing.T) {
	w := NewRecomputeWorker(&fakeRecomputer{reconcile: 3}, log.Discard())
	if err := w.StartupReconcile(context.Background()); err != nil {
		t.Errorf("StartupReconcile() error = %v", err)
	}

	w = NewRecomputeWorker(&fakeRecomputer{err: errors.New("boom")}, log.Discard())
	if err := w.StartupReconcile(context.Background()); err == nil {
		t.Error("StartupReconcile() expected error")
	}
}
