// Package orchestrator ties the pipeline together: detect the format,
// parse the document, build records, then persist and export them.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ArionMiles/finsight/pkg/api"
	"github.com/ArionMiles/finsight/pkg/parser"
	"github.com/ArionMiles/finsight/pkg/record"
	"github.com/ArionMiles/finsight/pkg/storage"
	"github.com/ArionMiles/finsight/pkg/writer/csv"
)

// Importer runs statement documents through the full import pipeline.
type Importer struct {
	registry *parser.Registry
	builder  *record.Builder
	store    storage.Store // optional
	export   *csv.Writer   // optional
	logger   *slog.Logger
}

// ImportResult summarizes a single document import.
type ImportResult struct {
	Bank     string
	Document string
	Parsed   int
	Skipped  int
	Stored   int
	Exported int
}

// New creates an Importer. store and export may be nil, in which case
// the corresponding stage is skipped.
func New(registry *parser.Registry, builder *record.Builder, store storage.Store, export *csv.Writer, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		registry: registry,
		builder:  builder,
		store:    store,
		export:   export,
		logger:   logger.With("component", "importer"),
	}
}

// ImportDocument parses the document at path and runs every extracted
// candidate through normalization, classification, storage, and export.
// A candidate that cannot be normalized is skipped, not fatal; a document
// that cannot be opened or matched to a format is.
func (i *Importer) ImportDocument(ctx context.Context, path, bank, password string) (*ImportResult, error) {
	p, formatName, err := i.registry.Detect(path, bank)
	if err != nil {
		return nil, err
	}
	if bank == "" || bank == "auto" {
		bank = formatName
	}

	i.logger.Info("importing document",
		"path", path,
		"bank", bank,
		"format", formatName,
	)

	doc := api.Document{Path: path, Password: password, Bank: bank}
	parsed, err := p.Parse(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	result := &ImportResult{
		Bank:     bank,
		Document: path,
		Skipped:  parsed.Skipped,
	}

	txns := make([]api.Transaction, 0, len(parsed.Candidates))
	for _, c := range parsed.Candidates {
		t, err := i.builder.Build(ctx, c, bank)
		if err != nil {
			result.Skipped++
			i.logger.Debug("skipping candidate",
				"description", c.Description,
				"error", err,
			)
			continue
		}
		txns = append(txns, t)
	}
	result.Parsed = len(txns)

	if result.Parsed == 0 && result.Skipped > 0 {
		i.logger.Warn("document yielded no transactions",
			"path", path,
			"skipped", result.Skipped,
		)
	}

	if i.store != nil && len(txns) > 0 {
		stored, err := i.store.StoreTransactions(ctx, txns, bank, path)
		if err != nil {
			return nil, fmt.Errorf("storing transactions: %w", err)
		}
		result.Stored = stored
	}

	if i.export != nil && len(txns) > 0 {
		if err := i.export.Append(txns); err != nil {
			return nil, fmt.Errorf("exporting transactions: %w", err)
		}
		result.Exported = len(txns)
	}

	i.logger.Info("import complete",
		"path", path,
		"parsed", result.Parsed,
		"skipped", result.Skipped,
		"stored", result.Stored,
	)
	return result, nil
}
