// Package pdftable parses credit-card statement PDFs whose transactions are
// laid out as a page-local table grid.
package pdftable

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ArionMiles/finsight/pkg/api"
	"github.com/ArionMiles/finsight/pkg/normalize"
	"github.com/ArionMiles/finsight/pkg/parser/pdfdoc"
)

// minDateLen rejects cells too short to hold a full DD/MM/YYYY date, which
// weeds out section markers and carried-forward rows cheaply.
const minDateLen = 10

// Parser extracts candidates from tabular statement PDFs. The fixed column
// layout is: first column date, second column description, amount at the end
// of the row. Some statements carry a trailing Cr/Dr indicator column after
// the amount, so the amount is resolved from the last cell backwards. The
// first row of every page is a header and is skipped.
type Parser struct {
	logger *slog.Logger
}

// New creates a tabular-PDF parser.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse iterates the document's pages and maps each table row onto a
// candidate. Rows with an unparsable date or a missing amount are skipped
// with a diagnostic and counted, never fatal.
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
		rows := d.PageRows(n)
		if len(rows) < 2 {
			continue
		}
		p.parseRows(rows[1:], doc.Path, result)
	}
	return result, nil
}

// parseRows maps table rows onto candidates and accumulates skip counts.
func (p *Parser) parseRows(rows [][]string, source string, result *api.Result) {
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if len(row) < 3 {
			// Wrapped description continuations and decorative rows land
			// here; they carry no date/amount pair of their own.
			result.Skipped++
			continue
		}

		dateStr := strings.TrimSpace(row[0])
		if len(dateStr) < minDateLen {
			result.Skipped++
			continue
		}
		date, clock, ok := normalize.ParseDateTime(dateStr, false)
		if !ok {
			p.logger.Debug("skipping row with unparsable date", "date", dateStr, "source", source)
			result.Skipped++
			continue
		}

		description := strings.TrimSpace(row[1])
		if description == "" {
			description = "No Description"
		}

		amountStr, ok := amountCell(row)
		if !ok {
			p.logger.Debug("skipping row with missing amount", "row", row, "source", source)
			result.Skipped++
			continue
		}
		if _, err := normalize.ParseAmount(amountStr); err != nil {
			p.logger.Debug("skipping row with unparsable amount", "amount", amountStr, "source", source)
			result.Skipped++
			continue
		}

		result.Candidates = append(result.Candidates, api.Candidate{
			Date:        date,
			Time:        clock,
			Description: description,
			RawAmount:   amountStr,
			Source:      source,
		})
	}
}

// amountCell resolves the amount from the tail of a row. The last cell is
// the amount unless it is empty, a bare Cr/Dr indicator, or otherwise
// unparsable, in which case the second-to-last cell holds the amount. A bare
// indicator is folded into the returned string so normalization can apply
// the credit sign flip.
func amountCell(row []string) (string, bool) {
	last := strings.TrimSpace(row[len(row)-1])
	prev := strings.TrimSpace(row[len(row)-2])

	switch strings.ToUpper(last) {
	case "CR", "DR":
		if prev == "" {
			return "", false
		}
		return prev + " " + last, true
	}
	if last != "" {
		if _, err := normalize.ParseAmount(last); err == nil {
			return last, true
		}
	}
	if prev == "" {
		return "", false
	}
	return prev, true
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
