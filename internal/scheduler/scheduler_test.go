package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanzas/internal/log"
)

func TestValidateSpec(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{DefaultAccrualSchedule, false},
		{DefaultExportSchedule, false},
		{"@daily", false},
		{"*/5 * * * *", false},
		{"0 0 * *", true},
		{"61 * * * *", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			err := ValidateSpec(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSpec(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
		})
	}
}

func TestScheduler_Add(t *testing.T) {
	s := New(time.UTC, log.Discard())
	noop := func(context.Context) error { return nil }

	if err := s.Add("accrual", DefaultAccrualSchedule, noop); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add("accrual", DefaultAccrualSchedule, noop); err == nil {
		t.Error("Add() duplicate name should fail")
	}
	if err := s.Add("broken", "not a spec", noop); err == nil {
		t.Error("Add() invalid spec should fail")
	}
	if got := len(s.cron.Entries()); got != 1 {
		t.Errorf("entries = %d, want 1", got)
	}
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(time.UTC, log.Discard())
	calls := 0
	boom := errors.New("boom")

	_ = s.Add("ok", "@daily", func(context.Context) error { calls++; return nil })
	_ = s.Add("fails", "@daily", func(context.Context) error { return boom })

	if err := s.RunNow(context.Background(), "ok"); err != nil {
		t.Errorf("RunNow(ok) error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if err := s.RunNow(context.Background(), "fails"); !errors.Is(err, boom) {
		t.Errorf("RunNow(fails) error = %v, want boom", err)
	}
	if err := s.RunNow(context.Background(), "missing"); err == nil {
		t.Error("RunNow(missing) should fail")
	}
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	s := New(time.UTC, log.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}
