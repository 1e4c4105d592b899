package fx

import (
	"context"
	"fmt"
	"net/http"

	"github.com/beevik/etree"

	"finanzas/internal/core"
)

const (
	defaultBuyPath  = "//compra"
	defaultSellPath = "//venta"
)

// XMLProvider reads buy and sell from an XML feed with etree paths.
type XMLProvider struct {
	url      string
	buyPath  string
	sellPath string
	client   *http.Client
}

func NewXMLProvider(url, buyPath, sellPath string, client *http.Client) *XMLProvider {
	if buyPath == "" {
		buyPath = defaultBuyPath
	}
	if sellPath == "" {
		sellPath = defaultSellPath
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &XMLProvider{url: url, buyPath: buyPath, sellPath: sellPath, client: client}
}

func (p *XMLProvider) Rate(ctx context.Context) (core.ExchangeRate, bool, error) {
	body, err := fetch(ctx, p.client, p.url, "application/xml")
	if err != nil {
		return core.ExchangeRate{}, false, err
	}
	return p.parse(body)
}

func (p *XMLProvider) parse(body []byte) (core.ExchangeRate, bool, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return core.ExchangeRate{}, false, fmt.Errorf("parse XML: %w", err)
	}

	sell := doc.FindElement(p.sellPath)
	if sell == nil {
		return core.ExchangeRate{}, false, fmt.Errorf("sell element %s not found in XML", p.sellPath)
	}

	var rate core.ExchangeRate
	rate.Sell, _ = parseQuote(sell.Text())
	if buy := doc.FindElement(p.buyPath); buy != nil {
		rate.Buy, _ = parseQuote(buy.Text())
	}
	return rate, rate.Usable(), nil
}
