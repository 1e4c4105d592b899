// Package storage is the SQLite records backend. Every table stores the
// record as a JSON document in data next to one column per secondary index.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/records"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Writers serialize on the single sqlite file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Records returns the tables of this repository.
func (r *SQLiteRepository) Records() records.Set {
	return records.Set{
		Cards:         NewTable(r.db, records.CardSchema),
		Consumptions:  NewTable(r.db, records.ConsumptionSchema),
		Statements:    NewTable(r.db, records.StatementSchema),
		Debts:         NewTable(r.db, records.DebtSchema),
		FixedExpenses: NewTable(r.db, records.FixedExpenseSchema),
		Incomes:       NewTable(r.db, records.IncomeSchema),
		Budgets:       NewTable(r.db, records.BudgetSchema),
		Markers:       r,
		Legacy:        r,
	}
}

// Marker implements records.MarkerStore.
func (r *SQLiteRepository) Marker(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get marker %s: %w", key, err)
	}
	return v, true, nil
}

// SetMarker implements records.MarkerStore.
func (r *SQLiteRepository) SetMarker(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("set marker %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Marker saved to SQLite", "key", key, "value", value)
	return nil
}

// LegacyDocument implements records.LegacyStore.
func (r *SQLiteRepository) LegacyDocument(ctx context.Context, source string) ([]byte, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM legacy_documents WHERE source = ?`, source).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get legacy document %s: %w", source, err)
	}
	return []byte(payload), true, nil
}

// StageLegacyDocument implements records.LegacyStore.
func (r *SQLiteRepository) StageLegacyDocument(ctx context.Context, source string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO legacy_documents (source, payload) VALUES (?, ?)
		ON CONFLICT(source) DO UPDATE SET payload = excluded.payload, imported_at = CURRENT_TIMESTAMP`,
		source, string(payload))
	if err != nil {
		return fmt.Errorf("stage legacy document %s: %w", source, err)
	}
	slog.InfoContext(ctx, "Legacy document staged", "source", source, "bytes", len(payload))
	return nil
}

// Table is a records.Table over one sqlite table.
type Table[T records.Entity] struct {
	db      *sql.DB
	schema  records.Schema[T]
	columns []string
}

func NewTable[T records.Entity](db *sql.DB, schema records.Schema[T]) *Table[T] {
	return &Table[T]{db: db, schema: schema, columns: schema.IndexNames()}
}

func (t *Table[T]) GetAll(ctx context.Context) ([]T, error) {
	return t.query(ctx, fmt.Sprintf(`SELECT data FROM %s ORDER BY seq`, t.schema.Name))
}

func (t *Table[T]) GetByID(ctx context.Context, id string) (T, error) {
	return t.getByID(ctx, t.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (t *Table[T]) getByID(ctx context.Context, q queryRower, id string) (T, error) {
	var zero T
	var data string
	err := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, t.schema.Name), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%s %q: %w", t.schema.Name, id, core.ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("get %s %s: %w", t.schema.Name, id, err)
	}
	return records.Decode[T]([]byte(data))
}

func (t *Table[T]) Put(ctx context.Context, rec T) error {
	return t.put(ctx, t.db, rec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (t *Table[T]) put(ctx context.Context, x execer, rec T) error {
	id := rec.RecordID()
	if id == "" {
		return fmt.Errorf("put %s: empty id", t.schema.Name)
	}
	data, err := records.Encode(rec)
	if err != nil {
		return err
	}

	cols := append([]string{"id", "data", "seq"}, t.columns...)
	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	placeholders[2] = fmt.Sprintf("(SELECT COALESCE(MAX(seq), 0) + 1 FROM %s)", t.schema.Name)

	updates := []string{"data = excluded.data", "updated_at = CURRENT_TIMESTAMP"}
	for _, c := range t.columns {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	args := []any{id, string(data)}
	keys := t.schema.Keys(rec)
	for _, c := range t.columns {
		args = append(args, keys[c])
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s`,
		t.schema.Name, strings.Join(cols, ", "), strings.Join(placeholders, ", "), strings.Join(updates, ", "))
	if _, err := x.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s %s: %w", t.schema.Name, id, err)
	}
	return nil
}

// Update runs the read-merge-write in one transaction.
func (t *Table[T]) Update(ctx context.Context, id string, fields map[string]any) (T, error) {
	var zero T
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin update %s: %w", t.schema.Name, err)
	}
	defer tx.Rollback()

	current, err := t.getByID(ctx, tx, id)
	if err != nil {
		return zero, err
	}
	merged, err := records.Merge(current, fields)
	if err != nil {
		return zero, err
	}
	if err := t.put(ctx, tx, merged); err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit update %s: %w", t.schema.Name, err)
	}
	return merged, nil
}

func (t *Table[T]) Delete(ctx context.Context, id string) error {
	res, err := t.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t.schema.Name), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", t.schema.Name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", t.schema.Name, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", t.schema.Name, id, core.ErrNotFound)
	}
	return nil
}

// ListBy only accepts the schema's index names, which are also the only
// identifiers interpolated into the query.
func (t *Table[T]) ListBy(ctx context.Context, index, value string) ([]T, error) {
	if !t.schema.HasIndex(index) {
		return nil, fmt.Errorf("%s.%s: %w", t.schema.Name, index, records.ErrUnknownIndex)
	}
	return t.query(ctx,
		fmt.Sprintf(`SELECT data FROM %s WHERE %s = ? ORDER BY seq`, t.schema.Name, index), value)
}

func (t *Table[T]) query(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.schema.Name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.schema.Name, err)
		}
		rec, err := records.Decode[T]([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.schema.Name, err)
	}
	return out, nil
}
