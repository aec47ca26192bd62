package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places money columns keep.
const MoneyScale = 2

// MaxPrice is the largest amount a NUMERIC(12,2) column holds.
var MaxPrice = decimal.New(999999999999, -MoneyScale)

var (
	ErrNegativePrice = errors.New("cannot be negative")
	ErrPriceScale    = errors.New("cannot have more than 2 decimal places")
	ErrPriceTooLarge = errors.New("exceeds 9999999999.99")
)

// CheckPrice reports whether d can be stored as a price without rounding.
func CheckPrice(d decimal.Decimal) error {
	switch {
	case d.IsNegative():
		return ErrNegativePrice
	case !d.Equal(d.Round(MoneyScale)):
		return ErrPriceScale
	case d.GreaterThan(MaxPrice):
		return ErrPriceTooLarge
	}
	return nil
}
