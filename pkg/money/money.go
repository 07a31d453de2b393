// Package money validates ISO-4217 codes and renders integer minor-unit
// amounts for display.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var ErrUnknownCurrency = errors.New("unknown currency code")

// NormalizeCode upper-cases and validates an ISO-4217 code.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrUnknownCurrency
	}
	u, err := currency.ParseISO(code)
	if err != nil {
		return "", ErrUnknownCurrency
	}
	return u.String(), nil
}

// Exponent is the number of minor-unit digits for code (2 for USD, 0 for VND).
// Unknown codes default to 2.
func Exponent(code string) int32 {
	u, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(u)
	return int32(scale)
}

// Format renders minor units in major units, e.g. 123456 USD -> "1234.56".
func Format(minor int64, code string) string {
	exp := Exponent(code)
	return decimal.New(minor, -exp).StringFixed(exp)
}
