package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"finanzas/internal/core"
)

// JSONProvider reads a quote such as {"compra": 1000, "venta": 1040}. The
// English keys buy and sell are accepted too, and values may be strings.
type JSONProvider struct {
	url    string
	client *http.Client
}

func NewJSONProvider(url string, client *http.Client) *JSONProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &JSONProvider{url: url, client: client}
}

type jsonQuote struct {
	Compra json.RawMessage `json:"compra"`
	Venta  json.RawMessage `json:"venta"`
	Buy    json.RawMessage `json:"buy"`
	Sell   json.RawMessage `json:"sell"`
}

func (p *JSONProvider) Rate(ctx context.Context) (core.ExchangeRate, bool, error) {
	body, err := fetch(ctx, p.client, p.url, "application/json")
	if err != nil {
		return core.ExchangeRate{}, false, err
	}
	return parseJSONQuote(body)
}

func parseJSONQuote(body []byte) (core.ExchangeRate, bool, error) {
	var q jsonQuote
	if err := json.Unmarshal(body, &q); err != nil {
		return core.ExchangeRate{}, false, fmt.Errorf("decode quote: %w", err)
	}
	rate := core.ExchangeRate{
		Buy:  rawNumber(q.Compra, q.Buy),
		Sell: rawNumber(q.Venta, q.Sell),
	}
	return rate, rate.Usable(), nil
}

// rawNumber returns the first candidate holding a positive number or
// numeric string.
func rawNumber(candidates ...json.RawMessage) float64 {
	for _, raw := range candidates {
		if len(raw) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if v, ok := parseQuote(s); ok {
				return v
			}
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil && f > 0 {
			return f
		}
	}
	return 0
}
