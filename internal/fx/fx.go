// Package fx supplies the exchange rate between the local and the foreign
// currency. A provider that cannot quote returns ok=false; the aggregator
// then leaves foreign spend unconverted.
package fx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

// Provider names.
const (
	ProviderNone   = "none"
	ProviderStatic = "static"
	ProviderJSON   = "json"
	ProviderXML    = "xml"
)

// Provider returns the current rate.
type Provider interface {
	Rate(ctx context.Context) (rate core.ExchangeRate, ok bool, err error)
}

// Config selects and configures a provider.
type Config struct {
	Provider    string
	URL         string
	StaticBuy   float64
	StaticSell  float64
	XMLBuyPath  string // etree path such as //casa/compra
	XMLSellPath string
	CacheTTL    time.Duration
	Timeout     time.Duration
}

// New builds the configured provider, wrapped in a cache when CacheTTL is
// positive.
func New(cfg Config, logger *log.Logger) (Provider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var p Provider
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderNone:
		return None{}, nil
	case ProviderStatic:
		p = Static{Quote: core.ExchangeRate{Buy: cfg.StaticBuy, Sell: cfg.StaticSell}}
	case ProviderJSON:
		p = NewJSONProvider(cfg.URL, client)
	case ProviderXML:
		p = NewXMLProvider(cfg.URL, cfg.XMLBuyPath, cfg.XMLSellPath, client)
	default:
		return nil, fmt.Errorf("unknown FX provider %q", cfg.Provider)
	}

	if cfg.CacheTTL > 0 {
		p = NewCached(p, cfg.CacheTTL, logger)
	}
	return p, nil
}

// None never has a rate.
type None struct{}

func (None) Rate(context.Context) (core.ExchangeRate, bool, error) {
	return core.ExchangeRate{}, false, nil
}

// Static always returns Quote, when usable.
type Static struct {
	Quote core.ExchangeRate
}

func (s Static) Rate(context.Context) (core.ExchangeRate, bool, error) {
	return s.Quote, s.Quote.Usable(), nil
}

func fetch(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// parseQuote reads "1234.5", "1234,50" or "1.234,50".
func parseQuote(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, v > 0
	}
	v, err := core.ParseAmount(s)
	return v, err == nil
}
