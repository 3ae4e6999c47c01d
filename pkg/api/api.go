// Package api defines the core interfaces and data structures for finsight.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UncategorizedSentinel is the category assigned when classification finds
// no match for a transaction description.
const UncategorizedSentinel = "Uncategorized"

// ClassificationSource records which path produced a transaction's final
// merchant and category values.
type ClassificationSource string

const (
	// ClassifiedByNone means the transaction has not been classified yet.
	ClassifiedByNone ClassificationSource = ""
	// ClassifiedByRule means the deterministic dictionary rules produced
	// the final values.
	ClassifiedByRule ClassificationSource = "rule"
	// ClassifiedByExternal means the external classifier produced at least
	// one of the final values.
	ClassifiedByExternal ClassificationSource = "external"
)

// Candidate is an unvalidated transaction extracted from one raw row or line
// of a source document. Parsers discard a candidate when its date or amount
// cannot be resolved; only valid candidates reach the record builder.
type Candidate struct {
	// Date is the transaction calendar date.
	Date time.Time
	// Time is the clock time in "15:04:05" form, or empty when the source
	// carries no time component.
	Time string
	// Description is the raw transaction text as it appeared in the source.
	Description string
	// RawAmount is the amount text before normalization, including any
	// currency symbols, grouping separators, or CR/DR markers.
	RawAmount string
	// RawBalance is the running-balance text when the source provides one.
	RawBalance string
	// Source identifies the document the candidate was extracted from.
	Source string
}

// Transaction is the canonical record produced by the import pipeline.
//
// Amount sign convention: positive = debit (money leaving the account),
// negative = credit/refund. Every parser normalizes into this convention
// regardless of the source's own debit/credit notation.
type Transaction struct {
	Date time.Time
	// Time is the clock time in "15:04:05" form, or empty when unknown.
	Time string
	// Merchant is the resolved merchant name; empty when unresolved.
	Merchant string
	// Description preserves the original free text for audit.
	Description string
	Amount      decimal.Decimal
	// Category defaults to UncategorizedSentinel. It is the only field that
	// may be overwritten after creation, by a later, more precise
	// classification run.
	Category string
	// Bank identifies the source bank/format the record was parsed from.
	Bank string
	// Balance is the running balance after this transaction, when the
	// source provides one.
	Balance *decimal.Decimal
	// Person is optional split-allocation metadata; empty means unallocated.
	Person string
	// ClassifiedBy records whether the rule-based or external path produced
	// the final merchant/category values.
	ClassifiedBy ClassificationSource
}

// NaturalKey derives the deduplication key for the transaction. Two
// transactions with equal keys are treated as the same real-world event:
// a later import with an equal key replaces the stored record instead of
// duplicating it. The field order and separator are load-bearing; stored
// data is keyed on this exact string, so changing the derivation silently
// invalidates deduplication against existing databases.
//
// The key is a heuristic, not a guaranteed-unique transaction ID: two
// genuinely distinct same-day transactions with identical description and
// amount at the same bank collapse into one stored record. This is an
// accepted approximation.
func (t Transaction) NaturalKey() string {
	return fmt.Sprintf("%s_%s_%s_%s",
		t.Bank, t.Date.Format("2006-01-02"), t.Description, t.Amount.String())
}

// Document is a handle to a source statement on disk.
type Document struct {
	Path string
	// Password unlocks encrypted PDFs; ignored by other formats.
	Password string
	// Bank is the source bank identifier the document was resolved to.
	Bank string
}

// Result is the outcome of parsing one document.
type Result struct {
	Candidates []Candidate
	// Skipped counts rows or lines that were present but could not be
	// parsed. A partially parseable document still yields whatever valid
	// candidates it could extract, plus this count; it never silently
	// yields zero results when rows were present but unparseable.
	Skipped int
}

// Parser extracts transaction candidates from a source document.
//
// A document that cannot be opened at all (wrong password, corrupt file)
// returns a *DocumentError wrapping ErrDocumentOpen; that aborts the
// document but no others. A row or line that cannot be parsed is skipped
// and counted, never aborting the remaining stream. Each Parse call reads
// the document start to finish, so parsing is restartable per document.
type Parser interface {
	Parse(ctx context.Context, doc Document) (*Result, error)
}
