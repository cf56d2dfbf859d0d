package nfe

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var nonNumeric = regexp.MustCompile(`[^\d.,]`)

// parseStructuralDecimal handles machine-formatted values coming out of the
// XML tier: plain "." decimal, with "," showing up only in a few older
// emitters. Only the comma substitution is applied; there is no thousands
// separator in machine-generated values.
func parseStructuralDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseFallbackDecimal handles human-readable text recovered by the pattern
// tier: Brazilian locale, "." as thousands separator and "," as decimal
// separator, possibly surrounded by currency symbols or labels.
func parseFallbackDecimal(s string) (decimal.Decimal, bool) {
	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

var emissionLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseEmission(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range emissionLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
