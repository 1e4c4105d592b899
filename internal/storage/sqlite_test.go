package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finanzas/internal/core"
	"finanzas/internal/records"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "finanzas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteTableRoundTrip(t *testing.T) {
	ctx := context.Background()
	set := openTestRepo(t).Records()
	jan := core.YearMonth{Year: 2024, Month: 1}

	for i, id := range []string{"c1", "c2", "c3"} {
		c := core.CardConsumption{
			ID:               id,
			CardID:           "card-1",
			Description:      "item",
			Amount:           float64(i + 1),
			Currency:         core.ARS,
			PurchaseDate:     core.NewDate(2024, 1, 10),
			ClosingYearMonth: jan.AddMonths(i % 2),
			PostedYearMonth:  jan.AddMonths(i%2 + 1),
		}
		if err := set.Consumptions.Put(ctx, c); err != nil {
			t.Fatalf("Put(%s): %v", id, err)
		}
	}

	got, err := set.Consumptions.ListBy(ctx, records.IndexClosingYM, "2024-01")
	if err != nil {
		t.Fatalf("ListBy: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c1" || got[1].ID != "c3" {
		t.Fatalf("ListBy(closing_ym) = %+v", got)
	}

	// Re-putting keeps insertion order and updates index columns.
	moved := got[0]
	moved.ClosingYearMonth = jan.AddMonths(5)
	if err := set.Consumptions.Put(ctx, moved); err != nil {
		t.Fatal(err)
	}
	all, err := set.Consumptions.GetAll(ctx)
	if err != nil || len(all) != 3 || all[0].ID != "c1" {
		t.Fatalf("GetAll = %+v, %v", all, err)
	}
	got, _ = set.Consumptions.ListBy(ctx, records.IndexClosingYM, "2024-06")
	if len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("ListBy after move = %+v", got)
	}

	if _, err := set.Consumptions.ListBy(ctx, "description", "x"); !errors.Is(err, records.ErrUnknownIndex) {
		t.Errorf("ListBy(description) error = %v", err)
	}
}

func TestSQLiteUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	set := openTestRepo(t).Records()

	d := core.Debt{ID: "d1", Name: "Loan", TotalAmount: 100, InstallmentsCount: 2, Status: core.DebtActive}
	if err := set.Debts.Put(ctx, d); err != nil {
		t.Fatal(err)
	}
	got, err := set.Debts.Update(ctx, "d1", map[string]any{"status": "overdue"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != core.DebtOverdue || got.TotalAmount != 100 {
		t.Errorf("Update() = %+v", got)
	}
	stored, err := set.Debts.GetByID(ctx, "d1")
	if err != nil || stored.Status != core.DebtOverdue {
		t.Errorf("GetByID = %+v, %v", stored, err)
	}

	if _, err := set.Debts.Update(ctx, "nope", nil); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update(nope) error = %v", err)
	}
	if err := set.Debts.Delete(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	if err := set.Debts.Delete(ctx, "d1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete twice error = %v", err)
	}
}

func TestSQLiteMarkersAndLegacy(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	if _, ok, err := repo.Marker(ctx, "finanzas.migrated.v3"); ok || err != nil {
		t.Fatalf("Marker before set = %v, %v", ok, err)
	}
	if err := repo.SetMarker(ctx, "finanzas.migrated.v3", "true"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetMarker(ctx, "finanzas.migrated.v3", "yes"); err != nil {
		t.Fatal(err)
	}
	if v, ok, err := repo.Marker(ctx, "finanzas.migrated.v3"); !ok || v != "yes" || err != nil {
		t.Errorf("Marker = %q, %v, %v", v, ok, err)
	}

	if err := repo.StageLegacyDocument(ctx, "store", []byte(`{"cards":[]}`)); err != nil {
		t.Fatal(err)
	}
	b, ok, err := repo.LegacyDocument(ctx, "store")
	if !ok || err != nil || string(b) != `{"cards":[]}` {
		t.Errorf("LegacyDocument = %s, %v, %v", b, ok, err)
	}
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
}
