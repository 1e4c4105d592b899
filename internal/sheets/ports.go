// Package sheets exports monthly KPI snapshots to a spreadsheet, one row
// per month.
package sheets

import (
	"context"
	"sort"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/kpi"
)

// Ports for outbound adapters.
type (
	// SnapshotWriter writes one snapshot row and returns the written range.
	// Writing a month that is already present replaces its row.
	SnapshotWriter interface {
		AppendSnapshot(ctx context.Context, s kpi.Snapshot) (rowRef string, err error)
	}

	// SnapshotIndex lists the months of year already exported.
	SnapshotIndex interface {
		ExportedMonths(ctx context.Context, year int) ([]core.YearMonth, error)
	}

	SnapshotStore interface {
		SnapshotWriter
		SnapshotIndex
	}
)

// Header is the column layout of the snapshot sheet.
var Header = []string{
	"Month", "Income plan", "Income actual", "Expenses plan", "Expenses actual",
	"Commitments plan", "Commitments actual", "Savings plan", "Savings actual",
	"Cards accrued", "Debt installments", "Coverage", "FX sell", "Exported at",
}

// Row renders s in Header order with amounts rounded to cents. The FX cell is
// empty when no rate was available.
func Row(s kpi.Snapshot, exportedAt time.Time) []any {
	var sell any = ""
	if s.FXRate != nil {
		sell = core.Round2(s.FXRate.Sell)
	}
	return []any{
		s.Month.String(),
		core.Round2(s.Plan.Income),
		core.Round2(s.Actual.Income),
		core.Round2(s.Plan.Expenses),
		core.Round2(s.Actual.Expenses),
		core.Round2(s.Plan.Commitments),
		core.Round2(s.Actual.Commitments),
		core.Round2(s.Plan.Savings),
		core.Round2(s.Actual.Savings),
		core.Round2(s.CardsAccrued),
		core.Round2(s.DebtInstallments),
		core.Round2(s.CoverageRatio),
		sell,
		exportedAt.UTC().Format(time.RFC3339),
	}
}

// ParseMonths reads the Month column, skipping the header and any cell that
// is not a YYYY-MM value. The result is sorted and de-duplicated.
func ParseMonths(cells []string) []core.YearMonth {
	seen := make(map[core.YearMonth]struct{}, len(cells))
	out := make([]core.YearMonth, 0, len(cells))
	for _, c := range cells {
		ym, err := core.ParseYearMonth(c)
		if err != nil {
			continue
		}
		if _, dup := seen[ym]; dup {
			continue
		}
		seen[ym] = struct{}{}
		out = append(out, ym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
