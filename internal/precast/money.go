package precast

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	lakh  = decimal.NewFromInt(100_000)
	crore = decimal.NewFromInt(10_000_000)
)

// RoundDays rounds a schedule to one decimal place for reporting
func RoundDays(v float64) float64 {
	return RoundTo(v, 1)
}

// RoundCost rounds an INR amount to paise for reporting
func RoundCost(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds v to the given number of decimal places.
// NaN and infinities have no decimal form and are returned unchanged.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// FormatINR renders an amount the way Indian estimates are read:
// crores above 1e7, lakhs above 1e5, plain rupees otherwise.
func FormatINR(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "₹" + strconv.FormatFloat(amount, 'g', -1, 64)
	}
	d := decimal.NewFromFloat(amount)
	switch {
	case d.GreaterThanOrEqual(crore):
		return "₹" + d.Div(crore).StringFixed(2) + " Cr"
	case d.GreaterThanOrEqual(lakh):
		return "₹" + d.Div(lakh).StringFixed(2) + " L"
	}
	return "₹" + groupThousands(d.StringFixed(0))
}

func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
