package services

import (
	"context"
	"encoding/json"
	"fmt"

	"finanzas/internal/core"
)

// ItemKind tags the payload of CreateItem.
type ItemKind string

const (
	KindDebt         ItemKind = "debt"
	KindFixedExpense ItemKind = "fixed_expense"
	KindIncome       ItemKind = "income"
	KindBudget       ItemKind = "budget"
	KindAdHocExpense ItemKind = "ad_hoc_expense"
)

// ErrUnknownKind is returned for a payload with an unsupported kind.
var ErrUnknownKind = fmt.Errorf("%w: unknown item kind", core.ErrInvalidField)

// ItemPayload is a tagged union. Data holds the JSON of the record named by
// Kind:
//
//	debt            core.Debt
//	fixed_expense   core.FixedExpense
//	income          IncomeInput
//	budget          core.BudgetCategory
//	ad_hoc_expense  AdHocExpense
type ItemPayload struct {
	Kind ItemKind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// CreatedItem is the result of CreateItem. Item holds the stored record or,
// for incomes, the stored rows.
type CreatedItem struct {
	Kind ItemKind `json:"kind"`
	ID   string   `json:"id"`
	Item any      `json:"item"`
}

// ItemService dispatches creation of planning items to the owning service.
type ItemService struct {
	Debts    *DebtService
	Expenses *ExpenseService
	Incomes  *IncomeService
	Budgets  *BudgetService
}

func (s *ItemService) CreateItem(ctx context.Context, p ItemPayload) (CreatedItem, error) {
	switch p.Kind {
	case KindDebt:
		d, err := decodeItem[core.Debt](p)
		if err != nil {
			return CreatedItem{}, err
		}
		d, err = s.Debts.CreateDebt(ctx, d)
		return CreatedItem{Kind: p.Kind, ID: d.ID, Item: d}, err
	case KindFixedExpense:
		fe, err := decodeItem[core.FixedExpense](p)
		if err != nil {
			return CreatedItem{}, err
		}
		fe, err = s.Expenses.CreateFixedExpense(ctx, fe)
		return CreatedItem{Kind: p.Kind, ID: fe.ID, Item: fe}, err
	case KindIncome:
		in, err := decodeItem[IncomeInput](p)
		if err != nil {
			return CreatedItem{}, err
		}
		rows, err := s.Incomes.CreateIncome(ctx, in)
		if err != nil {
			return CreatedItem{}, err
		}
		return CreatedItem{Kind: p.Kind, ID: rows[0].ID, Item: rows}, nil
	case KindBudget:
		b, err := decodeItem[core.BudgetCategory](p)
		if err != nil {
			return CreatedItem{}, err
		}
		b, err = s.Budgets.CreateBudget(ctx, b)
		return CreatedItem{Kind: p.Kind, ID: b.ID, Item: b}, err
	case KindAdHocExpense:
		a, err := decodeItem[AdHocExpense](p)
		if err != nil {
			return CreatedItem{}, err
		}
		fe, err := s.Expenses.AddAdHocExpense(ctx, a)
		return CreatedItem{Kind: p.Kind, ID: fe.ID, Item: fe}, err
	default:
		return CreatedItem{}, fmt.Errorf("%w %q", ErrUnknownKind, p.Kind)
	}
}

func decodeItem[T any](p ItemPayload) (T, error) {
	var v T
	if len(p.Data) == 0 {
		return v, fmt.Errorf("%w: %s payload is empty", core.ErrInvalidField, p.Kind)
	}
	if err := json.Unmarshal(p.Data, &v); err != nil {
		return v, fmt.Errorf("%w: decode %s: %v", core.ErrInvalidField, p.Kind, err)
	}
	return v, nil
}
