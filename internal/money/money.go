// Package money parses and formats Brazilian real amounts.
package money

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal converts strings such as "R$ 1.234,50" or "250000" to an exact decimal.
// Dots are thousands separators and the comma is the decimal mark.
// Anything that does not parse yields zero.
func ParseDecimal(s string) decimal.Decimal {
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseBRL is ParseDecimal for callers working with ratios rather than amounts.
func ParseBRL(s string) float64 {
	return ParseDecimal(s).InexactFloat64()
}

// FromFloat converts a float amount to a decimal, zero for NaN and infinities.
func FromFloat(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// FormatBRL renders v as "R$ 1.234,50".
func FormatBRL(v float64) string {
	return FormatDecimal(FromFloat(v))
}

// FormatDecimal renders d as "R$ 1.234,50".
func FormatDecimal(d decimal.Decimal) string {
	return "R$ " + format(d, 2)
}

// FormatBRLWhole renders v rounded to whole reais, e.g. "R$ 1.235".
func FormatBRLWhole(v float64) string {
	return "R$ " + format(FromFloat(v), 0)
}

func format(d decimal.Decimal, places int32) string {
	d = d.Round(places)
	s := d.Abs().StringFixed(places)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	rem := len(intPart) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(intPart[:rem])
	for i := rem; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

// Amount is a monetary input that decodes from a JSON number or a locale string.
// Undecodable values become zero.
type Amount struct {
	d decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount { return Amount{d: d} }

func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) Float() float64 { return a.d.InexactFloat64() }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	a.d = decimal.Zero
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			a.d = ParseDecimal(s)
		}
		return nil
	}
	if d, err := decimal.NewFromString(string(b)); err == nil {
		a.d = d
	}
	return nil
}
