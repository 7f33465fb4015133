package money

import "github.com/shopspring/decimal"

// GSTDivisor extracts the GST component of a GST-inclusive amount (10% GST).
const GSTDivisor = 11

var gstMultiplier = decimal.RequireFromString("1.1")

// GSTFromInclusive returns the GST component of a GST-inclusive amount.
func GSTFromInclusive(inclusive Cents) Cents {
	return DivRound(inclusive, GSTDivisor)
}

// ExcludeGST strips GST from a GST-inclusive amount.
func ExcludeGST(inclusive Cents) Cents {
	return inclusive - GSTFromInclusive(inclusive)
}

// IncludeGST adds 10% GST to a GST-exclusive amount.
func IncludeGST(exclusive Cents) Cents {
	return PercentOf(exclusive, gstMultiplier)
}
