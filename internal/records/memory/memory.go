// Package memory is an in-process records backend. Records are kept in
// their encoded form so callers never share slices with the store.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finanzas/internal/core"
	"finanzas/internal/records"
)

type Table[T records.Entity] struct {
	schema records.Schema[T]

	mu    sync.RWMutex
	order []string
	rows  map[string][]byte
}

func NewTable[T records.Entity](schema records.Schema[T]) *Table[T] {
	return &Table[T]{schema: schema, rows: map[string][]byte{}}
}

// GetAll returns every record in insertion order.
func (t *Table[T]) GetAll(_ context.Context) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		rec, err := records.Decode[T](t.rows[id])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (t *Table[T]) GetByID(_ context.Context, id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %q: %w", t.schema.Name, id, core.ErrNotFound)
	}
	return records.Decode[T](b)
}

// Put inserts or replaces the record with the same id.
func (t *Table[T]) Put(_ context.Context, rec T) error {
	id := rec.RecordID()
	if id == "" {
		return fmt.Errorf("put %s: empty id", t.schema.Name)
	}
	b, err := records.Encode(rec)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = b
	return nil
}

func (t *Table[T]) Update(_ context.Context, id string, fields map[string]any) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	b, ok := t.rows[id]
	if !ok {
		return zero, fmt.Errorf("%s %q: %w", t.schema.Name, id, core.ErrNotFound)
	}
	current, err := records.Decode[T](b)
	if err != nil {
		return zero, err
	}
	merged, err := records.Merge(current, fields)
	if err != nil {
		return zero, err
	}
	nb, err := records.Encode(merged)
	if err != nil {
		return zero, err
	}
	t.rows[id] = nb
	return merged, nil
}

func (t *Table[T]) Delete(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("%s %q: %w", t.schema.Name, id, core.ErrNotFound)
	}
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListBy returns the records whose index key equals value, in insertion order.
func (t *Table[T]) ListBy(ctx context.Context, index, value string) ([]T, error) {
	f, ok := t.schema.Indexes[index]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", t.schema.Name, index, records.ErrUnknownIndex)
	}
	all, err := t.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, rec := range all {
		if f(rec) == value {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Markers is an in-memory records.MarkerStore.
type Markers struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMarkers() *Markers {
	return &Markers{values: map[string]string{}}
}

func (m *Markers) Marker(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Markers) SetMarker(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Legacy is an in-memory records.LegacyStore.
type Legacy struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewLegacy() *Legacy {
	return &Legacy{docs: map[string][]byte{}}
}

func (l *Legacy) LegacyDocument(_ context.Context, source string) ([]byte, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.docs[source]
	return append([]byte(nil), b...), ok, nil
}

func (l *Legacy) StageLegacyDocument(_ context.Context, source string, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[source] = append([]byte(nil), payload...)
	return nil
}

// New returns a records.Set backed by memory.
func New() records.Set {
	return records.Set{
		Cards:         NewTable(records.CardSchema),
		Consumptions:  NewTable(records.ConsumptionSchema),
		Statements:    NewTable(records.StatementSchema),
		Debts:         NewTable(records.DebtSchema),
		FixedExpenses: NewTable(records.FixedExpenseSchema),
		Incomes:       NewTable(records.IncomeSchema),
		Budgets:       NewTable(records.BudgetSchema),
		Markers:       NewMarkers(),
		Legacy:        NewLegacy(),
	}
}
