package core

import (
	"errors"
	"testing"
)

func TestCardConsumptionValidate(t *testing.T) {
	good := CardConsumption{
		Description:  "ok",
		Amount:       100,
		Currency:     ARS,
		PurchaseDate: NewDate(2024, 1, 20),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		c    CardConsumption
		want error
	}{
		{CardConsumption{Description: "", Amount: 1, Currency: ARS, PurchaseDate: NewDate(2024, 1, 1)}, ErrEmptyDescription},
		{CardConsumption{Description: "a", Amount: 0, Currency: ARS, PurchaseDate: NewDate(2024, 1, 1)}, ErrInvalidAmount},
		{CardConsumption{Description: "a", Amount: 1, Currency: ARS}, ErrEmptyDate},
		{CardConsumption{Description: "a", Amount: 1, Currency: "x", PurchaseDate: NewDate(2024, 1, 1)}, ErrInvalidCurrency},
	}
	for i, tc := range bads {
		if err := tc.c.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestFixedExpenseValidate(t *testing.T) {
	fe := FixedExpense{
		Name:           "Rent",
		Amount:         1000,
		DueDay:         10,
		Recurrence:     Monthly,
		StartYearMonth: YearMonth{2024, 1},
	}
	if err := fe.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	fe.EndYearMonth = YearMonth{2023, 12}
	if err := fe.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected range error, got %v", err)
	}

	fe.EndYearMonth = YearMonth{}
	fe.Recurrence = "WEEKLY"
	if err := fe.Validate(); !errors.Is(err, ErrInvalidRecurrence) {
		t.Fatalf("expected recurrence error, got %v", err)
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(ErrInvalidAmount) {
		t.Error("ErrInvalidAmount should be a validation error")
	}
	if IsValidation(ErrNotFound) {
		t.Error("ErrNotFound should not be a validation error")
	}
}
