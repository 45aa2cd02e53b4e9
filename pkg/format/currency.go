// Package format renders waterfall amounts for display.
package format

import (
	"math"

	"github.com/filmmaker-og/filmmaker-calculator-suite-sub000/pkg/constants"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer  = message.NewPrinter(language.English)
	thousand = decimal.NewFromInt(1000)
)

type compactUnit struct {
	suffix string
	places int32
}

// Units applied successively while the rounded value reaches 1,000.
var compactUnits = []compactUnit{
	{suffix: "K", places: 0},
	{suffix: "M", places: 1},
	{suffix: "B", places: 1},
	{suffix: "T", places: 1},
}

// Currency returns a whole-dollar currency string with thousands separators
// (e.g., "$1,234,567", "-$35,000"). Infinite values render as "∞" and NaN as
// "—".
func Currency(amount float64) string {
	if text, ok := nonFinite(amount); ok {
		return text
	}
	rounded := math.Round(math.Abs(amount))
	formatted := printer.Sprintf("%.0f", rounded)
	if amount < 0 && rounded != 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// CompactCurrency returns an abbreviated currency string such as "$1.2M",
// "$450K" or "-$3.5M". Rounding is half away from zero, and a value that
// rounds up to 1,000 of one unit is promoted to the next ("$1M", not
// "$1000K").
func CompactCurrency(amount float64) string {
	if text, ok := nonFinite(amount); ok {
		return text
	}

	value := decimal.NewFromFloat(math.Abs(amount))
	scaled := value.Round(0)
	suffix := ""
	for _, unit := range compactUnits {
		if scaled.LessThan(thousand) {
			break
		}
		value = value.Div(thousand)
		scaled = value.Round(unit.places)
		suffix = unit.suffix
	}

	sign := ""
	if amount < 0 && !scaled.IsZero() {
		sign = "-"
	}
	return sign + "$" + scaled.String() + suffix
}

// Multiple renders an investor return multiple with two decimals, e.g.
// "1.70x". NaN and infinite values render as "—".
func Multiple(multiple float64) string {
	if math.IsNaN(multiple) || math.IsInf(multiple, 0) {
		return constants.NotApplicable
	}
	return decimal.NewFromFloat(multiple).StringFixed(2) + "x"
}

func nonFinite(amount float64) (string, bool) {
	switch {
	case math.IsNaN(amount):
		return constants.NotApplicable, true
	case math.IsInf(amount, 1):
		return constants.InfinitySymbol, true
	case math.IsInf(amount, -1):
		return "-" + constants.InfinitySymbol, true
	}
	return "", false
}
