package worker

import (
	"context"
	"fmt"

	"finanzas/internal/core"
	"finanzas/internal/kpi"
	"finanzas/internal/log"
	"finanzas/internal/sheets"
)

// SnapshotSource computes the KPI snapshot of a month.
type SnapshotSource interface {
	Kpis(ctx context.Context, ym core.YearMonth) (kpi.Snapshot, error)
}

// SnapshotExporter writes monthly KPI snapshots to a spreadsheet.
type SnapshotExporter struct {
	months SnapshotSource
	sheet  sheets.SnapshotWriter
	today  func() core.Date
	logger *log.Logger
}

func NewSnapshotExporter(months SnapshotSource, sheet sheets.SnapshotWriter, today func() core.Date, logger *log.Logger) *SnapshotExporter {
	return &SnapshotExporter{
		months: months,
		sheet:  sheet,
		today:  today,
		logger: logger.WithComponent(log.ComponentSheets),
	}
}

// ExportMonth writes the snapshot of ym and returns the written range.
func (e *SnapshotExporter) ExportMonth(ctx context.Context, ym core.YearMonth) (string, error) {
	snap, err := e.months.Kpis(ctx, ym)
	if err != nil {
		return "", fmt.Errorf("compute %s: %w", ym, err)
	}
	ref, err := e.sheet.AppendSnapshot(ctx, snap)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", ym, err)
	}
	e.logger.InfoContext(ctx, "Month exported",
		log.FieldYearMonth, ym.String(),
		log.FieldOperation, log.OpExport,
		"range", ref)
	return ref, nil
}

// ExportPreviousMonth exports the month before today.
func (e *SnapshotExporter) ExportPreviousMonth(ctx context.Context) error {
	prev := core.YearMonthOf(e.today()).AddMonths(-1)
	_, err := e.ExportMonth(ctx, prev)
	return err
}
