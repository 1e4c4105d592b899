// Package core provides money parsing and currency handling utilities.
//
// Amounts are float64 throughout. The parser accepts the separators people
// actually type: "1234.56", "1234,56", "1.234,56" and "1,234.56".
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Currency is an ISO 4217 code such as ARS or USD.
type Currency string

const (
	ARS Currency = "ARS"
	USD Currency = "USD"
)

// CurrencyPair names the local currency and the foreign reference currency.
type CurrencyPair struct {
	Local   Currency
	Foreign Currency
}

// DefaultCurrencies is the local peso / foreign dollar pair.
var DefaultCurrencies = CurrencyPair{Local: ARS, Foreign: USD}

// Validate accepts any three-letter upper-case code.
func (c Currency) Validate() error {
	if len(c) != 3 {
		return ErrInvalidCurrency
	}
	for _, r := range string(c) {
		if r < 'A' || r > 'Z' {
			return ErrInvalidCurrency
		}
	}
	return nil
}

// NormalizeCurrency upper-cases a code and maps common aliases. Empty input
// falls back to def.
func NormalizeCurrency(s string, def Currency) Currency {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "":
		return def
	case "$", "PESOS", "PESO", "ARG":
		return ARS
	case "U$S", "US$", "U$D", "DOLARES", "DÓLARES", "DOLAR", "DÓLAR":
		return USD
	}
	return Currency(s)
}

// ParseAmount converts a decimal string to a positive float.
//
// The right-most of '.' or ',' is taken as the decimal separator when it is
// followed by one or two digits; every other separator is a thousands
// separator. Negative, zero and malformed inputs return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34
//	ParseAmount("12,34")    -> 12.34
//	ParseAmount("1.234,56") -> 1234.56
//	ParseAmount("1,234")    -> 1234
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return 0, ErrInvalidAmount
		}
	}

	intPart, fracPart := s, ""
	if i := strings.LastIndexAny(s, ".,"); i >= 0 {
		tail := s[i+1:]
		if len(tail) == 1 || len(tail) == 2 {
			intPart, fracPart = s[:i], tail
		}
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)
	if intPart == "" {
		intPart = "0"
	}

	v, err := strconv.ParseFloat(intPart+"."+fracPart+"0", 64)
	if err != nil || math.IsInf(v, 0) || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// Round2 rounds to two decimals for display. Calculations keep full precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ExchangeRate quotes the foreign currency in local units. Conversion of
// foreign spend to local uses Sell.
type ExchangeRate struct {
	Buy  float64 `json:"buy"`
	Sell float64 `json:"sell"`
}

// Usable reports whether the rate can convert an amount.
func (r ExchangeRate) Usable() bool {
	return r.Sell > 0 && !math.IsInf(r.Sell, 0) && !math.IsNaN(r.Sell)
}
