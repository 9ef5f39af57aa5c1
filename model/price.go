package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Price is a display price parsed once at ingestion.
type Price struct {
	Display  string          `json:"display"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
	Valid    bool            `json:"valid"`
}

var currencySymbols = map[rune]string{
	'£': "GBP",
	'$': "USD",
	'€': "EUR",
	'¥': "JPY",
}

var currencyCodePattern = regexp.MustCompile(`\b([A-Z]{3})\b`)

// ParsePrice parses a display price such as "£12.99" or "15.00 GBP".
// Every character other than digits and '.' is dropped before parsing.
// A price that cannot be parsed has a zero Amount and Valid set to false.
func ParsePrice(s string) Price {
	p := Price{Display: s, Currency: detectCurrency(s)}

	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return p
	}

	amount, err := decimal.NewFromString(digits)
	if err != nil {
		return p
	}
	p.Amount = amount
	p.Valid = true
	return p
}

// Value returns the amount used for filtering and sorting.
func (p Price) Value() decimal.Decimal {
	return p.Amount
}

// Defective returns true if a non-blank display value failed to parse.
func (p Price) Defective() bool {
	return !p.Valid && strings.TrimSpace(p.Display) != ""
}

func detectCurrency(s string) string {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if code, ok := currencySymbols[r]; ok {
			return code
		}
	}
	if m := currencyCodePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseDate parses a feed date. The second return value is false when the
// value is blank or matches none of the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
