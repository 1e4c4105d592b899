// Package records defines the keyed record store the services persist
// through: one table per entity with get/put/update/delete by id and
// equality lookups on a fixed set of secondary indexes.
package records

import (
	"context"
	"errors"

	"finanzas/internal/core"
)

// ErrUnknownIndex is returned by ListBy for an index the table does not have.
var ErrUnknownIndex = errors.New("unknown index")

// Entity is a record addressable by id.
type Entity interface {
	RecordID() string
}

// Ports for storage backends.
type (
	// Table stores one entity type. GetByID, Update and Delete wrap
	// core.ErrNotFound for unknown ids.
	Table[T Entity] interface {
		GetAll(ctx context.Context) ([]T, error)
		GetByID(ctx context.Context, id string) (T, error)
		Put(ctx context.Context, rec T) error
		// Update merges fields onto the JSON form of the stored record and
		// returns the result. The id is never changed.
		Update(ctx context.Context, id string, fields map[string]any) (T, error)
		Delete(ctx context.Context, id string) error
		ListBy(ctx context.Context, index, value string) ([]T, error)
	}

	// MarkerStore holds process-wide string flags such as migration markers.
	MarkerStore interface {
		Marker(ctx context.Context, key string) (value string, ok bool, err error)
		SetMarker(ctx context.Context, key, value string) error
	}

	// LegacyStore holds raw documents from earlier versions of the app,
	// staged for the data migration pipeline.
	LegacyStore interface {
		LegacyDocument(ctx context.Context, source string) (payload []byte, ok bool, err error)
		StageLegacyDocument(ctx context.Context, source string, payload []byte) error
	}
)

// Set groups the tables of one backend.
type Set struct {
	Cards         Table[core.CreditCard]
	Consumptions  Table[core.CardConsumption]
	Statements    Table[core.Statement]
	Debts         Table[core.Debt]
	FixedExpenses Table[core.FixedExpense]
	Incomes       Table[core.Income]
	Budgets       Table[core.BudgetCategory]
	Markers       MarkerStore
	Legacy        LegacyStore
}
