package fx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

// Cached keeps the last successful quote for ttl and collapses concurrent
// fetches into one. When a refresh fails the stale quote is served.
type Cached struct {
	next   Provider
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group
	logger *log.Logger

	mu        sync.Mutex
	quote     core.ExchangeRate
	ok        bool
	fetchedAt time.Time
}

func NewCached(next Provider, ttl time.Duration, logger *log.Logger) *Cached {
	return &Cached{
		next:   next,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentFX),
	}
}

type result struct {
	rate core.ExchangeRate
	ok   bool
}

func (c *Cached) Rate(ctx context.Context) (core.ExchangeRate, bool, error) {
	c.mu.Lock()
	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl {
		rate, ok := c.quote, c.ok
		c.mu.Unlock()
		return rate, ok, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("rate", func() (any, error) {
		rate, ok, err := c.next.Rate(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.quote, c.ok, c.fetchedAt = rate, ok, c.now()
		c.mu.Unlock()
		return result{rate: rate, ok: ok}, nil
	})
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.fetchedAt.IsZero() && c.ok {
			c.logger.WarnContext(ctx, "FX refresh failed, serving stale quote", log.FieldError, err)
			return c.quote, true, nil
		}
		return core.ExchangeRate{}, false, err
	}
	r := v.(result)
	return r.rate, r.ok, nil
}
