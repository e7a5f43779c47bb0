package trade

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatMoney renders cents as dollars, e.g. "$1,234.50" or "-$0.25".
func FormatMoney(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(int64(cents/100)), cents%100)
}

// FormatWeight renders grams as kilograms.
func FormatWeight(grams int64) string {
	return humanize.CommafWithDigits(float64(grams)/1000, 2) + " kg"
}

// FormatVolume renders millilitres as litres.
func FormatVolume(ml int64) string {
	return humanize.CommafWithDigits(float64(ml)/1000, 2) + " L"
}
