// Package memory is an in-process snapshot sheet for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/kpi"
	ports "finanzas/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows map[int][][]any
	now  func() time.Time
}

var _ ports.SnapshotStore = (*Store)(nil)

func New() *Store {
	return &Store{rows: make(map[int][][]any), now: time.Now}
}

// AppendSnapshot stores the row and returns a synthetic row reference.
func (s *Store) AppendSnapshot(_ context.Context, snap kpi.Snapshot) (string, error) {
	if snap.Month.IsZero() {
		return "", core.ErrInvalidYearMonth
	}
	row := ports.Row(snap, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	year := snap.Month.Year
	for i, r := range s.rows[year] {
		if r[0] == row[0] {
			s.rows[year][i] = row
			return fmt.Sprintf("mem:%d:%d", year, i+1), nil
		}
	}
	s.rows[year] = append(s.rows[year], row)
	return fmt.Sprintf("mem:%d:%d", year, len(s.rows[year])), nil
}

func (s *Store) ExportedMonths(_ context.Context, year int) ([]core.YearMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells := make([]string, 0, len(s.rows[year]))
	for _, r := range s.rows[year] {
		cells = append(cells, fmt.Sprint(r[0]))
	}
	return ports.ParseMonths(cells), nil
}

// Rows returns a copy of the rows stored for year.
func (s *Store) Rows(year int) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.rows[year]...)
}
