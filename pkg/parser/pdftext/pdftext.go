// Package pdftext parses marketplace/card statement PDFs that expose no
// extractable table grid, scanning page text line by line instead.
package pdftext

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ArionMiles/finsight/pkg/api"
	"github.com/ArionMiles/finsight/pkg/normalize"
	"github.com/ArionMiles/finsight/pkg/parser/pdfdoc"
)

var (
	// headerRe identifies pages that carry the transaction block.
	headerRe = regexp.MustCompile(`Date\s+SerNo\.\s+Transaction Details\s+Reward\s+Intl\.#\s+Amount`)
	// dateRe matches the fixed DD/MM/YYYY date token anywhere in a line.
	dateRe = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	// amountRe validates the trailing amount token.
	amountRe = regexp.MustCompile(`^\d+(?:,\d+)*(?:\.\d{2})?$`)
	// noiseTokenRe matches reward-point counts and international-transaction
	// markers that pollute descriptions.
	noiseTokenRe = regexp.MustCompile(`^\d+%?$`)
)

// minSerialLen is the minimum digit count for a serial/reference number.
// Shorter numeric runs are arbitrary text, not transaction references.
const minSerialLen = 8

// Line-level rejection reasons. errNotTransaction marks ordinary prose
// lines; the others mark lines that looked like transactions but failed.
var (
	errNotTransaction = errors.New("no date token")
	errBadDate        = errors.New("unparsable date")
	errShortTail      = errors.New("too few fields after date")
	errBadSerial      = errors.New("invalid serial number")
	errBadAmount      = errors.New("unparsable amount")
)

// Parser extracts candidates from text-line statement PDFs. A line is a
// transaction only if it contains a date token plus a tokenizable tail:
// serial number, free-text description, and trailing amount with an
// optional CR/DR marker.
type Parser struct {
	logger *slog.Logger
}

// New creates a text-line PDF parser.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse scans every page whose text carries the transaction header.
// Transaction-looking lines that fail validation are skipped and counted;
// ordinary text lines are ignored silently.
func (p *Parser) Parse(ctx context.Context, doc api.Document) (*api.Result, error) {
	d, err := pdfdoc.Open(doc.Path, doc.Password)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	result := &api.Result{}
	for n := 1; n <= d.NumPages(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lines := d.PageLines(n)
		if !pageHasHeader(lines) {
			continue
		}

		for _, ln := range lines {
			candidate, err := parseLine(ln, doc.Path)
			switch {
			case err == nil:
				result.Candidates = append(result.Candidates, candidate)
			case errors.Is(err, errNotTransaction):
				// ordinary page text
			default:
				p.logger.Debug("skipping transaction-like line", "line", ln, "reason", err)
				result.Skipped++
			}
		}
	}
	return result, nil
}

func pageHasHeader(lines []string) bool {
	for _, ln := range lines {
		if headerRe.MatchString(ln) {
			return true
		}
	}
	return false
}

// parseLine extracts one candidate from a statement line of the shape
//
//	DD/MM/YYYY <serial> <description...> <reward> <amount>[ CR|DR]
//
// The date is searched anywhere in the line, not anchored at the start: the
// PDF layout engine sometimes emits a stray percentage or code token before
// it. Lines whose serial is not a long digit run are rejected as false
// positives so arbitrary numeric text is never mis-parsed as a transaction.
func parseLine(line, source string) (api.Candidate, error) {
	line = strings.TrimSpace(line)
	loc := dateRe.FindStringIndex(line)
	if loc == nil {
		return api.Candidate{}, errNotTransaction
	}

	date, _, ok := normalize.ParseDateTime(line[loc[0]:loc[1]], false)
	if !ok {
		return api.Candidate{}, errBadDate
	}

	parts := strings.Fields(line[loc[1]:])

	// Peel a trailing CR/DR marker first so the field-count check sees the
	// real tail shape: serial, description, amount.
	marker := ""
	if n := len(parts); n > 0 {
		switch strings.ToUpper(parts[n-1]) {
		case "CR", "DR":
			marker = strings.ToUpper(parts[n-1])
			parts = parts[:n-1]
		}
	}
	if len(parts) < 3 {
		return api.Candidate{}, errShortTail
	}

	serial := parts[0]
	if len(serial) < minSerialLen || !isDigits(serial) {
		return api.Candidate{}, errBadSerial
	}

	amountStr := parts[len(parts)-1]
	if !amountRe.MatchString(amountStr) {
		return api.Candidate{}, errBadAmount
	}
	if _, err := normalize.ParseAmount(amountStr); err != nil {
		return api.Candidate{}, errBadAmount
	}

	descParts := parts[1 : len(parts)-1]
	description := joinWithoutNoise(descParts)
	if description == "" {
		description = strings.Join(descParts, " ")
	}

	rawAmount := amountStr
	if marker != "" {
		rawAmount += " " + marker
	}

	return api.Candidate{
		Date:        date,
		Description: description,
		RawAmount:   rawAmount,
		Source:      source,
	}, nil
}

// joinWithoutNoise drops bare numeric and percentage tokens (reward points,
// international-transaction codes) from the description fields.
func joinWithoutNoise(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if noiseTokenRe.MatchString(p) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
