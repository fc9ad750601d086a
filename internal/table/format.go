package table

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var symbols = map[string]string{
	"PHP": "₱",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"IDR": "Rp",
}

// PriceFormatter renders prices in one fixed currency with en-US grouping.
type PriceFormatter struct {
	printer *message.Printer
	symbol  string
	scale   int
}

// NewPriceFormatter creates a formatter for the ISO 4217 currency code.
func NewPriceFormatter(code string) (*PriceFormatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("invalid price currency %q: %w", code, err)
	}
	symbol, ok := symbols[unit.String()]
	if !ok {
		symbol = unit.String() + " "
	}
	scale, _ := currency.Standard.Rounding(unit)
	return &PriceFormatter{
		printer: message.NewPrinter(language.AmericanEnglish),
		symbol:  symbol,
		scale:   scale,
	}, nil
}

// Format renders price for display, e.g. ₱1,200.00. The value itself is
// never rounded for anything but display.
func (f *PriceFormatter) Format(price float64) string {
	sign := ""
	if price < 0 {
		sign = "-"
		price = -price
	}
	return sign + f.symbol + f.printer.Sprint(number.Decimal(price, number.Scale(f.scale)))
}
