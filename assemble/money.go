package assemble

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// Rupiah formats an amount the way Indonesian price sheets print it,
// e.g. "Rp 12.500". Amounts are rounded to whole rupiah.
func Rupiah(amount float64) string {
	return idPrinter.Sprintf("Rp %d", int64(math.Round(amount)))
}

// Count formats an integer with Indonesian digit grouping.
func Count(n int) string {
	return idPrinter.Sprintf("%d", n)
}
