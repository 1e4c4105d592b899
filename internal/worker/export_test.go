package worker

import (
	"context"
	"errors"
	"testing"

	"finanzas/internal/core"
	"finanzas/internal/kpi"
	"finanzas/internal/log"
	"finanzas/internal/sheets/memory"
)

type fakeMonths struct {
	asked []core.YearMonth
	err   error
}

func (f *fakeMonths) Kpis(_ context.Context, ym core.YearMonth) (kpi.Snapshot, error) {
	f.asked = append(f.asked, ym)
	if f.err != nil {
		return kpi.Snapshot{}, f.err
	}
	return kpi.Snapshot{Month: ym, CardsAccrued: 123}, nil
}

func TestSnapshotExporter_ExportPreviousMonth(t *testing.T) {
	ctx := context.Background()
	today := func() core.Date {
		d, _ := core.ParseDate("2024-01-01")
		return d
	}

	months := &fakeMonths{}
	sheet := memory.New()
	e := NewSnapshotExporter(months, sheet, today, log.Discard())

	if err := e.ExportPreviousMonth(ctx); err != nil {
		t.Fatalf("ExportPreviousMonth() error = %v", err)
	}
	if len(months.asked) != 1 || months.asked[0].String() != "2023-12" {
		t.Errorf("asked = %v, want [2023-12]", months.asked)
	}
	exported, err := sheet.ExportedMonths(ctx, 2023)
	if err != nil {
		t.Fatalf("ExportedMonths() error = %v", err)
	}
	if len(exported) != 1 || exported[0].String() != "2023-12" {
		t.Errorf("exported = %v", exported)
	}

	failing := NewSnapshotExporter(&fakeMonths{err: errors.New("store down")}, sheet, today, log.Discard())
	if err := failing.ExportPreviousMonth(ctx); err == nil {
		t.Error("ExportPreviousMonth() expected error when the snapshot cannot be computed")
	}
}
