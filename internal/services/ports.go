// Package services orchestrates the domain packages over the record store:
// card and statement bookkeeping, debts, recurring items, the monthly KPI
// view and the daily accrual run.
package services

import (
	"context"
	"sync"
	"time"

	"finanzas/internal/core"
)

// RecomputePublisher announces that a statement must be rebuilt from its
// consumptions. *amqp.Client implements it.
type RecomputePublisher interface {
	PublishStatementRecompute(ctx context.Context, cardID, closingYM, reason string) error
}

// Invalidator drops derived data after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context) {}

// Clock returns the current calendar date.
type Clock func() core.Date

// SystemClock returns today's date in loc.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return func() core.Date { return core.DateOf(time.Now().In(loc)) }
}

// keyedMutex serializes work per key without holding a global lock.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
