package render

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter formats prices with digit grouping and a currency symbol
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter creates a formatter for symbol
func NewFormatter(symbol string) *Formatter {
	return &Formatter{
		printer: message.NewPrinter(language.English),
		symbol:  symbol,
	}
}

// Price formats a whole amount, e.g. ₹4,500
func (f *Formatter) Price(v int64) string {
	return f.symbol + f.printer.Sprintf("%d", v)
}

// Amount formats a decimal amount to two places, dropping the fraction when it is zero
func (f *Formatter) Amount(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return f.Price(d.IntPart())
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + f.symbol + whole + "." + frac
	}
	return sign + f.symbol + f.printer.Sprintf("%d", n) + "." + frac
}
