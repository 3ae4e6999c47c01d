// Package delimited parses CSV-like bank-statement exports. Banks disagree
// on header names and on how debit/credit is encoded, so the parser maps a
// small set of column-name synonyms onto the candidate shape and derives a
// single signed amount.
package delimited

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/finsight/pkg/api"
	"github.com/ArionMiles/finsight/pkg/normalize"
)

// Column-name synonyms, tried in order.
var (
	dateColumns    = []string{"Date", "Txn Date"}
	timeColumns    = []string{"Time"}
	descColumns    = []string{"Description", "Details", "Narration"}
	debitColumns   = []string{"Debit", "Dr", "Withdrawal Amt."}
	creditColumns  = []string{"Credit", "Cr", "Deposit Amt."}
	balanceColumns = []string{"Balance", "Closing Balance"}
)

var errNoHeader = errors.New("no usable header row")

// Parser extracts candidates from delimited bank exports. The signed amount
// is derived as debit minus credit: this derivation is the authoritative
// place the global sign convention (positive = money leaving the account)
// is established for this format.
type Parser struct {
	logger *slog.Logger
}

// New creates a delimited-text parser.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse reads the document as headered CSV. A file that cannot be opened or
// has no recognizable header is a document-level failure; individual rows
// with an unresolvable date or amount are skipped and counted.
func (p *Parser) Parse(ctx context.Context, doc api.Document) (*api.Result, error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, api.OpenFailure(doc.Path, err)
	}
	defer f.Close()

	result, err := p.parseRecords(ctx, f, doc.Path)
	if err != nil {
		return nil, &api.DocumentError{Path: doc.Path, Err: err}
	}
	return result, nil
}

// columnMap resolves header synonyms to field indexes; -1 means absent.
type columnMap struct {
	date, clock, desc, debit, credit, balance int
}

func (p *Parser) parseRecords(ctx context.Context, r io.Reader, source string) (*api.Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // banks pad trailing columns inconsistently
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errNoHeader
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	result := &api.Result{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed CSV line is a row-level defect, not a document
			// failure.
			p.logger.Debug("skipping malformed record", "source", source, "error", err)
			result.Skipped++
			continue
		}

		candidate, ok := p.parseRecord(record, cols, source)
		if !ok {
			result.Skipped++
			continue
		}
		result.Candidates = append(result.Candidates, candidate)
	}
	return result, nil
}

func (p *Parser) parseRecord(record []string, cols columnMap, source string) (api.Candidate, bool) {
	dateStr := field(record, cols.date)
	date, _, ok := normalize.ParseDateTime(dateStr, false)
	if !ok {
		p.logger.Debug("skipping record with unparsable date", "date", dateStr, "source", source)
		return api.Candidate{}, false
	}

	debitStr := field(record, cols.debit)
	creditStr := field(record, cols.credit)
	if debitStr == "" && creditStr == "" {
		p.logger.Debug("skipping record with no amount", "source", source)
		return api.Candidate{}, false
	}

	debit, err := parseOptionalAmount(debitStr)
	if err != nil {
		p.logger.Debug("skipping record with unparsable debit", "debit", debitStr, "source", source)
		return api.Candidate{}, false
	}
	credit, err := parseOptionalAmount(creditStr)
	if err != nil {
		p.logger.Debug("skipping record with unparsable credit", "credit", creditStr, "source", source)
		return api.Candidate{}, false
	}

	// Debit minus credit: spend positive, refunds negative.
	amount := debit.Sub(credit)

	clock := ""
	if t := field(record, cols.clock); t != "" {
		if _, c, tok := normalize.ParseDateTime(dateStr+"|"+t, true); tok {
			clock = c
		}
	}

	return api.Candidate{
		Date:        date,
		Time:        clock,
		Description: field(record, cols.desc),
		RawAmount:   amount.String(),
		RawBalance:  field(record, cols.balance),
		Source:      source,
	}, true
}

func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return normalize.ParseAmount(s)
}

func mapColumns(header []string) (columnMap, error) {
	index := func(synonyms []string) int {
		for _, want := range synonyms {
			for i, h := range header {
				if strings.EqualFold(strings.TrimSpace(h), want) {
					return i
				}
			}
		}
		return -1
	}

	cols := columnMap{
		date:    index(dateColumns),
		clock:   index(timeColumns),
		desc:    index(descColumns),
		debit:   index(debitColumns),
		credit:  index(creditColumns),
		balance: index(balanceColumns),
	}
	if cols.date < 0 || (cols.debit < 0 && cols.credit < 0) {
		return columnMap{}, errNoHeader
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
