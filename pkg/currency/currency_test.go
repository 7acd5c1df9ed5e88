package currency

import (
	"testing"

	"storiofy/pkg/domain"
)

func TestSymbolKnownCodes(t *testing.T) {
	cases := []struct {
		code domain.Currency
		want string
	}{
		{domain.CurrencyUSD, "$"},
		{domain.CurrencyTHB, "฿"},
		{domain.CurrencyINR, "₹"},
		{domain.CurrencyGBP, "£"},
	}
	for _, tc := range cases {
		if got := Symbol(tc.code); got != tc.want {
			t.Fatalf("Symbol(%s) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestSymbolUnknownCodeFallsBack(t *testing.T) {
	if got := Symbol(domain.Currency("XYZ")); got != DefaultSymbol {
		t.Fatalf("Symbol(XYZ) = %q, want %q", got, DefaultSymbol)
	}
	if got := Symbol(domain.Currency("")); got != DefaultSymbol {
		t.Fatalf("Symbol(empty) = %q, want %q", got, DefaultSymbol)
	}
}

func TestFormatPriceGroupsThousands(t *testing.T) {
	if got := FormatPrice(1000, domain.CurrencyINR); got != "₹1,000" {
		t.Fatalf("FormatPrice(1000, INR) = %q, want %q", got, "₹1,000")
	}
	if got := FormatPrice(1234567, domain.CurrencyUSD); got != "$1,234,567" {
		t.Fatalf("FormatPrice(1234567, USD) = %q", got)
	}
}

func TestFormatPriceUnknownCodeUsesDefaultSymbol(t *testing.T) {
	if got := FormatPrice(500, domain.Currency("XYZ")); got != "$500" {
		t.Fatalf("FormatPrice(500, XYZ) = %q, want %q", got, "$500")
	}
}

func TestFormatPriceKeepsFraction(t *testing.T) {
	if got := FormatPrice(24.99, domain.CurrencyUSD); got != "$24.99" {
		t.Fatalf("FormatPrice(24.99, USD) = %q", got)
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported(domain.CurrencyTHB) {
		t.Fatalf("THB should be supported")
	}
	if IsSupported(domain.Currency("XYZ")) {
		t.Fatalf("XYZ should not be supported")
	}
}
