package models

import "github.com/shopspring/decimal"

// Epsilon is the tolerance used for every money comparison.
var Epsilon = decimal.New(1, -2)

// RoundMoney rounds an amount to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsZero reports whether d is within Epsilon of zero.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Epsilon)
}

// Positive reports whether d exceeds Epsilon.
func Positive(d decimal.Decimal) bool {
	return d.GreaterThan(Epsilon)
}
