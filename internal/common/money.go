package common

import "github.com/shopspring/decimal"

// MoneyPrecision is the fractional precision used for all internal
// monetary computation: 28 total digits, 18 of them fractional.
const MoneyPrecision = 18

// Quantize truncates a decimal value to the given number of decimal
// places (a currency's divisibility).
func Quantize(value decimal.Decimal, divisibility int) decimal.Decimal {
	return value.Truncate(int32(divisibility))
}

// ToCents converts a decimal amount to an integer in the currency's
// minor unit. Fractions below one minor unit are truncated.
func ToCents(amount decimal.Decimal, divisibility int) int64 {
	return amount.Shift(int32(divisibility)).Truncate(0).IntPart()
}

// FromCents converts an integer amount in the currency's minor unit to
// a decimal amount.
func FromCents(amount int64, divisibility int) decimal.Decimal {
	return decimal.NewFromInt(amount).Shift(int32(-divisibility))
}
