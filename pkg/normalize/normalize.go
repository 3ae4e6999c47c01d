// Package normalize parses raw date, time, and amount text from bank
// statements into canonical values.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMalformedAmount reports amount text with no usable numeric content
// after stripping currency symbols, separators, and CR/DR markers.
var ErrMalformedAmount = errors.New("malformed amount")

// currencyTokens are stripped from amount text before numeric parsing.
// Longer tokens first so "Rs." is consumed before "Rs".
var currencyTokens = []string{"INR", "Rs.", "Rs", "₹", "$"}

// dateLayouts are the recognized calendar layouts, tried in order.
var dateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
}

// clockLayout is the recognized clock-time layout.
const clockLayout = "15:04:05"

// ParseAmount converts raw amount text into a signed decimal. Currency
// symbols, grouping commas, and surrounding whitespace are stripped. A "CR"
// marker makes the result negative and a "DR" marker positive, matching the
// global sign convention (positive = money leaving the account) regardless
// of the source's own polarity. The result round-trips: re-parsing the
// returned decimal's string form yields the same decimal.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty input", ErrMalformedAmount)
	}

	// CR/DR may trail the number directly ("31.59CR") or as its own token
	// ("31.59 CR"). Scan tokens so embedded markers are caught too.
	credit := false
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		switch strings.ToUpper(f) {
		case "CR":
			credit = true
		case "DR":
			// debit is the default polarity
		default:
			kept = append(kept, f)
		}
	}
	s = strings.Join(kept, "")

	switch upper := strings.ToUpper(s); {
	case strings.HasSuffix(upper, "CR"):
		credit = true
		s = s[:len(s)-2]
	case strings.HasSuffix(upper, "DR"):
		s = s[:len(s)-2]
	}

	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, raw)
	}
	if credit {
		// Credits are negative in our convention even when the source
		// printed the magnitude without a sign.
		d = d.Abs().Neg()
	}
	return d, nil
}

// ParseDateTime parses raw date text against the recognized layouts. When
// hasTime is set, a pipe-delimited clock suffix ("02/01/2006|15:04:05") is
// split off and returned separately in canonical "15:04:05" form.
//
// A non-matching input returns ok=false rather than an error: the caller
// skips that row and continues, so one malformed row never aborts
// extraction of the remaining rows in a multi-hundred-row statement.
func ParseDateTime(raw string, hasTime bool) (date time.Time, clock string, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, "", false
	}

	if hasTime {
		if datePart, timePart, found := strings.Cut(s, "|"); found {
			s = strings.TrimSpace(datePart)
			if t, err := time.Parse(clockLayout, strings.TrimSpace(timePart)); err == nil {
				clock = t.Format(clockLayout)
			}
		}
	}

	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, clock, true
		}
	}
	return time.Time{}, "", false
}
