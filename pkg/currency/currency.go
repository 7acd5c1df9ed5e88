// Package currency maps supported currency codes to display symbols and
// formats prices for the storefront. Every function is total: unknown codes
// fall back to the default symbol instead of failing, so a stale or invalid
// persisted preference can never break rendering.
package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"storiofy/pkg/domain"
)

// DefaultSymbol is used for any code outside the supported set.
const DefaultSymbol = "$"

// Info describes one supported display currency.
type Info struct {
	Code   domain.Currency `json:"code"`
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
}

var supported = []Info{
	{Code: domain.CurrencyUSD, Symbol: "$", Name: "US Dollar"},
	{Code: domain.CurrencyEUR, Symbol: "€", Name: "Euro"},
	{Code: domain.CurrencyGBP, Symbol: "£", Name: "British Pound"},
	{Code: domain.CurrencyINR, Symbol: "₹", Name: "Indian Rupee"},
	{Code: domain.CurrencyTHB, Symbol: "฿", Name: "Thai Baht"},
	{Code: domain.CurrencyAUD, Symbol: "A$", Name: "Australian Dollar"},
	{Code: domain.CurrencyCAD, Symbol: "C$", Name: "Canadian Dollar"},
	{Code: domain.CurrencySGD, Symbol: "S$", Name: "Singapore Dollar"},
	{Code: domain.CurrencyAED, Symbol: "د.إ", Name: "UAE Dirham"},
}

var symbols = func() map[domain.Currency]string {
	m := make(map[domain.Currency]string, len(supported))
	for _, info := range supported {
		m[info.Code] = info.Symbol
	}
	return m
}()

var printer = message.NewPrinter(language.English)

// Supported returns the supported currencies in display order.
func Supported() []Info {
	out := make([]Info, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether code belongs to the supported set.
func IsSupported(code domain.Currency) bool {
	_, ok := symbols[code]
	return ok
}

// Symbol returns the display symbol for code, or DefaultSymbol when the code
// is not in the supported set.
func Symbol(code domain.Currency) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return DefaultSymbol
}

// FormatPrice renders amount with thousands grouping, prefixed by the symbol
// for code: FormatPrice(1000, "INR") == "₹1,000". Fraction digits follow the
// numeric value; no fixed decimal places are enforced.
func FormatPrice(amount float64, code domain.Currency) string {
	return Symbol(code) + printer.Sprintf("%v", number.Decimal(amount))
}
