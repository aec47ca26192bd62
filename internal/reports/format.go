package reports

import (
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	lakh     = decimal.NewFromInt(100_000)
	million  = decimal.NewFromInt(1_000_000)
)

// currency returns a never nil currency; unknown codes format without a
// symbol.
func currency(code string) *money.Currency {
	return money.New(0, code).Currency()
}

// FormatMoney renders amount in full, e.g. ₹1,234.50.
func FormatMoney(amount decimal.Decimal, code string) string {
	cur := currency(code)
	return cur.Formatter().Format(amount.Shift(int32(cur.Fraction)).Round(0).IntPart())
}

// CompactMoney renders amount with one decimal and a magnitude suffix:
// L (lakh) for INR, M for other currencies, K for thousands. Smaller
// amounts are rounded to whole units.
func CompactMoney(amount decimal.Decimal, code string) string {
	var num string
	switch {
	case code == "INR" && amount.GreaterThanOrEqual(lakh):
		num = amount.Div(lakh).StringFixed(1) + "L"
	case code != "INR" && amount.GreaterThanOrEqual(million):
		num = amount.Div(million).StringFixed(1) + "M"
	case amount.GreaterThanOrEqual(thousand):
		num = amount.Div(thousand).StringFixed(1) + "K"
	default:
		num = amount.StringFixed(0)
	}
	cur := currency(code)
	tmpl := cur.Template
	if tmpl == "" {
		tmpl = "$1"
	}
	return strings.Replace(strings.Replace(tmpl, "1", num, 1), "$", cur.Grapheme, 1)
}

// CompactCount renders a unit count as 1.2K or 3.4M.
func CompactCount(n int64) string {
	d := decimal.NewFromInt(n)
	switch {
	case n >= 1_000_000:
		return d.Div(million).StringFixed(1) + "M"
	case n >= 1_000:
		return d.Div(thousand).StringFixed(1) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}
