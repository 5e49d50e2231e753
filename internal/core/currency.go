package core

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatCurrency renders a money amount in the given ISO currency code,
// localized for the given BCP-47 language tag. The caller passes the user's
// preference currency; it always wins over the built-in default. Unknown
// codes fall back to DefaultCurrency, unknown languages to DefaultLanguage.
func FormatCurrency(m Money, currencyCode, languageCode string) string {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.MustParseISO(DefaultCurrency)
	}
	tag, err := language.Parse(languageCode)
	if err != nil {
		tag = language.MustParse(DefaultLanguage)
	}
	p := message.NewPrinter(tag)
	return p.Sprintf("%v", currency.Symbol(unit.Amount(m.Units())))
}
