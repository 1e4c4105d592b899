package sheets

import (
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/kpi"
)

func TestRow(t *testing.T) {
	exported := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		snapshot kpi.Snapshot
		check    func(t *testing.T, row []any)
	}{
		{
			name: "rounds amounts and leaves fx empty",
			snapshot: kpi.Snapshot{
				Month:  core.YearMonth{Year: 2024, Month: 2},
				Plan:   kpi.View{Income: 1000.556},
				Actual: kpi.View{Savings: -12.346},
			},
			check: func(t *testing.T, row []any) {
				if len(row) != len(Header) {
					t.Fatalf("row has %d cells, header %d", len(row), len(Header))
				}
				if row[0] != "2024-02" {
					t.Errorf("month = %v", row[0])
				}
				if row[1] != 1000.56 {
					t.Errorf("income plan = %v, want 1000.56", row[1])
				}
				if row[8] != -12.35 {
					t.Errorf("savings actual = %v, want -12.35", row[8])
				}
				if row[12] != "" {
					t.Errorf("fx = %v, want empty", row[12])
				}
				if row[13] != "2024-03-01T07:00:00Z" {
					t.Errorf("exported at = %v", row[13])
				}
			},
		},
		{
			name: "includes sell rate",
			snapshot: kpi.Snapshot{
				Month:  core.YearMonth{Year: 2024, Month: 2},
				FXRate: &core.ExchangeRate{Buy: 990, Sell: 1010.5},
			},
			check: func(t *testing.T, row []any) {
				if row[12] != 1010.5 {
					t.Errorf("fx = %v, want 1010.5", row[12])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Row(tt.snapshot, exported))
		})
	}
}

func TestParseMonths(t *testing.T) {
	got := ParseMonths([]string{"Month", "2024-03", "", "2024-01", "2024-03", "notes", "2024-02"})
	want := []string{"2024-01", "2024-02", "2024-03"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("got[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
