package backend

import (
	"context"
	"path/filepath"
	"testing"

	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/log"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
		{"empty", Config{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "/tmp/f.db"})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "/tmp/f.db" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}
}

func TestOpen(t *testing.T) {
	for _, typ := range Types() {
		t.Run(typ.String(), func(t *testing.T) {
			ctx := context.Background()
			store, err := Open(ctx, Config{
				Type:         typ,
				SQLiteDBPath: filepath.Join(t.TempDir(), "data", "finanzas.db"),
			}, log.Discard())
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer store.Close()

			card := core.CreditCard{ID: "c1", Name: "Visa", Currency: core.ARS, ClosingDay: 20, DueDay: 5}
			if err := store.Records.Cards.Put(ctx, card); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			got, err := store.Records.Cards.GetByID(ctx, "c1")
			if err != nil {
				t.Fatalf("GetByID() error = %v", err)
			}
			if got.Name != "Visa" {
				t.Errorf("Name = %q", got.Name)
			}
		})
	}
}
