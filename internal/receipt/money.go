package receipt

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount with thousands grouping and at most two
// fraction digits, e.g. "Ksh 15,000" or "Ksh 1,250.5".
func FormatAmount(currency string, amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	s := printer.Sprintf("%v", number.Decimal(f, number.MaxFractionDigits(2)))
	if currency == "" {
		return s
	}
	return currency + " " + s
}
