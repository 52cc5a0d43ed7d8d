// Package normalizer turns raw price tokens coming from invoices, OCR text or
// collaborator output into canonical decimal values.
//
// Locale policy: the catalog speaks Argentine Spanish, so a comma is assumed
// to be the decimal separator and a dot before it a thousands separator
// ("1.250,50" → 1250.50). Tokens using comma-grouping before a dot decimal
// ("1,250.50") cannot be told apart reliably under that assumption and are
// rejected rather than guessed.
package normalizer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrPrecioInvalido marks a price token that could not be interpreted.
// Callers treat the unit price as absent instead of aborting the extraction.
var ErrPrecioInvalido = errors.New("precio no interpretable")

// NormalizarPrecio parses a raw price token into a decimal value.
// Currency symbols and whitespace are stripped first.
func NormalizarPrecio(raw string) (decimal.Decimal, error) {
	s := strings.Map(func(r rune) rune {
		if r == '$' || r == '€' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrPrecioInvalido, raw)
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma < lastDot {
			// Comma-grouping with a dot decimal ("1,250.50") — ambiguous
			// under the comma-as-decimal assumption.
			return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrPrecioInvalido, raw)
		}
		// Dot-grouped, comma decimal: "1.250,50" → "1250.50"
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrPrecioInvalido, raw)
	}
	return d, nil
}
