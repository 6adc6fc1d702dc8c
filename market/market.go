// Package market classifies symbols into asset classes and owns the
// per-class trading rules: quantity granularity and session hours.
package market

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Class is the asset class of a tradable symbol.
type Class string

const (
	Stock  Class = "stock"
	Crypto Class = "crypto"
	Forex  Class = "forex"
)

// cryptoTickers is the curated set of symbols traded as crypto.
var cryptoTickers = map[string]bool{
	"BTC": true, "ETH": true, "USDT": true, "BNB": true, "XRP": true,
	"ADA": true, "DOGE": true, "SOL": true, "TRX": true, "DOT": true,
}

// currencyCodes are the 3-letter codes accepted as halves of a forex pair.
var currencyCodes = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CHF": true,
	"AUD": true, "CAD": true, "NZD": true, "CNY": true,
}

// Classify maps a symbol to its asset class. First match wins:
// known crypto ticker, then a 6-letter pair of valid currency codes,
// otherwise stock. Total: every symbol gets a class.
func Classify(symbol string) Class {
	s := strings.ToUpper(strings.TrimSpace(symbol))

	if cryptoTickers[s] {
		return Crypto
	}
	if len(s) == 6 && isAlpha(s) && currencyCodes[s[:3]] && currencyCodes[s[3:]] {
		return Forex
	}
	return Stock
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

var (
	stepStock  = decimal.NewFromInt(1)
	stepCrypto = decimal.New(1, -8)
	stepForex  = decimal.New(1, -4)
)

// QuantityStep returns the minimum quantity granularity for the class.
// Stocks trade in whole shares; crypto and forex in fractional units.
func (c Class) QuantityStep() decimal.Decimal {
	switch c {
	case Crypto:
		return stepCrypto
	case Forex:
		return stepForex
	default:
		return stepStock
	}
}

// ValidQuantity reports whether q is a positive multiple of the
// class's quantity step.
func (c Class) ValidQuantity(q decimal.Decimal) bool {
	if !q.IsPositive() {
		return false
	}
	return q.Mod(c.QuantityStep()).IsZero()
}

func (c Class) String() string { return string(c) }
