package services

import (
	"context"
	"sync"

	"finanzas/internal/core"
)

func fixedClock(d core.Date) Clock {
	return func() core.Date { return d }
}

type publishedRecompute struct {
	cardID, month, reason string
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []publishedRecompute
	err  error
}

func (p *fakePublisher) PublishStatementRecompute(_ context.Context, cardID, month, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, publishedRecompute{cardID, month, reason})
	return p.err
}

type countingInvalidator struct {
	mu sync.Mutex
	n  int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func ym(s string) core.YearMonth {
	v, err := core.ParseYearMonth(s)
	if err != nil {
		panic(err)
	}
	return v
}

func date(s string) core.Date {
	v, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return v
}
