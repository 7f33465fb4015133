/*
money.go - Integer-cent money arithmetic

PURPOSE:
  Every amount that flows through claims, reconciliations and statements is
  an integer count of cents. Dollars only appear at the edges (pricing tables,
  statement text, display), and crossing that boundary always goes through
  decimal.Decimal so rounding is exact.

ROUNDING:
  Conversions round half away from zero (decimal.Round). For the positive
  amounts this engine handles that is identical to "round half up".

USAGE:
  rent := money.FromDollars(decimal.RequireFromString("800.00"))
  fee := money.PercentOf(rent, decimal.RequireFromString("0.088"))
  fmt.Println(money.FormatAUD(fee)) // $70.40

SEE ALSO:
  - gst.go: GST helpers over cents
  - pricing/: dollar-denominated rate tables
*/
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is an amount of Australian currency in whole cents.
type Cents int64

var hundred = decimal.NewFromInt(100)

// FromDollars converts a dollar amount to cents, rounding to the nearest cent.
func FromDollars(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// FromFloat converts a float dollar amount to cents. Only use this at
// boundaries where the value arrived as a float (JSON, CLI flags).
func FromFloat(f float64) Cents {
	return FromDollars(decimal.NewFromFloat(f))
}

// Dollars returns the exact dollar value of c.
func (c Cents) Dollars() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Abs returns the absolute value of c.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

func (c Cents) String() string {
	return FormatAUD(c)
}

// PercentOf returns round(c × rate).
func PercentOf(c Cents, rate decimal.Decimal) Cents {
	return Cents(decimal.NewFromInt(int64(c)).Mul(rate).Round(0).IntPart())
}

// DivRound returns round(c / divisor).
func DivRound(c Cents, divisor int64) Cents {
	return Cents(decimal.NewFromInt(int64(c)).Div(decimal.NewFromInt(divisor)).Round(0).IntPart())
}

// Sum adds any number of cent values.
func Sum(values ...Cents) Cents {
	var total Cents
	for _, v := range values {
		total += v
	}
	return total
}

// Round2 rounds a dollar amount to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatAUD renders cents as an AUD string, e.g. "$1,234.56" or "-$12.00".
func FormatAUD(c Cents) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	whole := int64(c) / 100
	frac := int64(c) % 100

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), frac)
}
