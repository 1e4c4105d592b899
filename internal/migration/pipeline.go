// Package migration upgrades previously persisted data to the current
// schema. Steps run in a fixed order at startup; each one is gated by its own
// marker, so a completed step is never applied twice and a failed step is
// retried on the next run.
package migration

import (
	"context"
	"fmt"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/records"
)

// Marker keys. Each is set exactly once, after its step succeeded.
const (
	MarkerLegacyImport  = "finanzas.migrated.v3"
	MarkerClosingMonths = "finanzas.migrated.v4.closingMonths"
	MarkerDebts         = "finanzas.migrated.v5.debts"
)

// Dataset is the full record set threaded through the steps.
type Dataset struct {
	Legacy        *LegacyStore
	Cards         []core.CreditCard
	Consumptions  []core.CardConsumption
	Statements    []core.Statement
	Debts         []core.Debt
	FixedExpenses []core.FixedExpense
	Incomes       []core.Income
	Budgets       []core.BudgetCategory
}

// Markers holds marker values by key.
type Markers map[string]string

// Result is what a step produces: the new record set and the markers to set
// once the records are saved.
type Result struct {
	Data    Dataset
	Markers Markers
}

// Step is one ordered transformation.
type Step struct {
	Name   string
	Marker string
	Apply  func(Dataset, Markers) (Result, error)
}

// Steps returns the pipeline in execution order.
func Steps() []Step {
	return []Step{
		{Name: "legacy-import", Marker: MarkerLegacyImport, Apply: ImportLegacy},
		{Name: "closing-months", Marker: MarkerClosingMonths, Apply: BackfillClosingMonths},
		{Name: "debts", Marker: MarkerDebts, Apply: BackfillDebts},
	}
}

// Pipeline runs the steps against a record store.
type Pipeline struct {
	store  records.Set
	steps  []Step
	logger *log.Logger
}

func NewPipeline(store records.Set, logger *log.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		steps:  Steps(),
		logger: logger.WithComponent(log.ComponentMigration),
	}
}

// Run applies every pending step in order. A failing step is logged, its
// marker is left unset and the remaining steps are skipped; records written
// before the failure stay and are overwritten on the next run.
func (p *Pipeline) Run(ctx context.Context) error {
	markers, err := p.loadMarkers(ctx)
	if err != nil {
		return err
	}

	var data *Dataset
	for _, step := range p.steps {
		if markers[step.Marker] != "" {
			p.logger.DebugContext(ctx, "Migration step already applied",
				log.FieldStep, step.Name, log.FieldMarker, step.Marker)
			continue
		}
		if data == nil {
			loaded, err := Load(ctx, p.store)
			if err != nil {
				p.logger.ErrorContext(ctx, "Migration load failed", log.FieldStep, step.Name, log.FieldError, err)
				return err
			}
			data = &loaded
		}

		res, err := step.Apply(*data, markers)
		if err == nil {
			err = Save(ctx, p.store, res.Data)
		}
		if err == nil {
			err = p.setMarkers(ctx, res.Markers, markers)
		}
		if err != nil {
			p.logger.ErrorContext(ctx, "Migration step failed",
				log.FieldStep, step.Name, log.FieldMarker, step.Marker, log.FieldError, err)
			return fmt.Errorf("migration %s: %w", step.Name, err)
		}

		*data = res.Data
		p.logger.InfoContext(ctx, "Migration step applied",
			log.FieldStep, step.Name, log.FieldMarker, step.Marker)
	}
	return nil
}

func (p *Pipeline) loadMarkers(ctx context.Context) (Markers, error) {
	out := Markers{}
	for _, step := range p.steps {
		v, ok, err := p.store.Markers.Marker(ctx, step.Marker)
		if err != nil {
			return nil, fmt.Errorf("read marker %s: %w", step.Marker, err)
		}
		if ok {
			out[step.Marker] = v
		}
	}
	return out, nil
}

func (p *Pipeline) setMarkers(ctx context.Context, updates, current Markers) error {
	for k, v := range updates {
		if err := p.store.Markers.SetMarker(ctx, k, v); err != nil {
			return fmt.Errorf("set marker %s: %w", k, err)
		}
		current[k] = v
	}
	return nil
}

// Load reads the whole store plus the staged legacy document, if any.
func Load(ctx context.Context, s records.Set) (Dataset, error) {
	var d Dataset
	var err error

	if raw, ok, lerr := s.Legacy.LegacyDocument(ctx, LegacySource); lerr != nil {
		return d, lerr
	} else if ok {
		if d.Legacy, err = ParseLegacyStore(raw); err != nil {
			return d, err
		}
	}
	if d.Cards, err = s.Cards.GetAll(ctx); err != nil {
		return d, err
	}
	if d.Consumptions, err = s.Consumptions.GetAll(ctx); err != nil {
		return d, err
	}
	if d.Statements, err = s.Statements.GetAll(ctx); err != nil {
		return d, err
	}
	if d.Debts, err = s.Debts.GetAll(ctx); err != nil {
		return d, err
	}
	if d.FixedExpenses, err = s.FixedExpenses.GetAll(ctx); err != nil {
		return d, err
	}
	if d.Incomes, err = s.Incomes.GetAll(ctx); err != nil {
		return d, err
	}
	if d.Budgets, err = s.Budgets.GetAll(ctx); err != nil {
		return d, err
	}
	return d, nil
}

// Save upserts every record of d.
func Save(ctx context.Context, s records.Set, d Dataset) error {
	if err := putAll(ctx, s.Cards, d.Cards); err != nil {
		return err
	}
	if err := putAll(ctx, s.Consumptions, d.Consumptions); err != nil {
		return err
	}
	if err := putAll(ctx, s.Statements, d.Statements); err != nil {
		return err
	}
	if err := putAll(ctx, s.Debts, d.Debts); err != nil {
		return err
	}
	if err := putAll(ctx, s.FixedExpenses, d.FixedExpenses); err != nil {
		return err
	}
	if err := putAll(ctx, s.Incomes, d.Incomes); err != nil {
		return err
	}
	return putAll(ctx, s.Budgets, d.Budgets)
}

func putAll[T records.Entity](ctx context.Context, t records.Table[T], recs []T) error {
	for _, r := range recs {
		if err := t.Put(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
