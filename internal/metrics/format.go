package metrics

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency floors v and renders it in euros with thousands separators.
func FormatCurrency(v float64) string {
	return printer.Sprintf("€%d", int64(math.Floor(v)))
}

// FormatCount floors v and renders it with thousands separators.
func FormatCount(v float64) string {
	return printer.Sprintf("%d", int64(math.Floor(v)))
}

// FormatPercent renders v with one decimal and a percent sign.
func FormatPercent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}
