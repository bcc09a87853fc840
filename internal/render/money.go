// Package render formats leads, incentive tables, and rankings for the
// console and for file export.
package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	printerINR = message.NewPrinter(language.MustParse("en-IN"))
	printerUSD = message.NewPrinter(language.AmericanEnglish)
)

// INR formats a rupee amount with Indian digit grouping, e.g. ₹3,00,000.
func INR(amount float64) string {
	return printerINR.Sprintf("₹%v", number.Decimal(amount, number.MaxFractionDigits(2)))
}

// Money formats an amount in the given currency. INR uses Indian digit
// grouping; everything else uses western grouping. An empty currency is
// treated as USD.
func Money(amount float64, currency string) string {
	switch currency {
	case "INR":
		return INR(amount)
	case "CAD":
		return printerUSD.Sprintf("C$%v", number.Decimal(amount, number.MaxFractionDigits(2)))
	default:
		return printerUSD.Sprintf("$%v", number.Decimal(amount, number.MaxFractionDigits(2)))
	}
}
