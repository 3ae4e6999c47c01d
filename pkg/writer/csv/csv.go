// Package csv implements an append-only CSV export of transactions.
package csv

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ArionMiles/finsight/pkg/api"
)

// Header is the column layout of the export file.
var Header = []string{"Date", "Time", "Name", "Description", "Amount", "Category", "Person", "Bank"}

// Writer appends transactions to a CSV file. The header row is written
// once, when the file is empty.
type Writer struct {
	filePath string
	file     *os.File
	writer   *csv.Writer
	mu       sync.Mutex
	logger   *slog.Logger
}

// New opens (or creates) the export file at path in append mode.
func New(path string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening csv file: %w", err)
	}

	w := &Writer{
		filePath: path,
		file:     file,
		writer:   csv.NewWriter(file),
		logger:   logger,
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat csv file: %w", err)
	}
	if stat.Size() == 0 {
		if err := w.writeHeader(); err != nil {
			file.Close()
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	logger.Info("csv export initialized", "file", path)
	return w, nil
}

func (w *Writer) writeHeader() error {
	if err := w.writer.Write(Header); err != nil {
		return err
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Append writes the transactions as CSV rows. Existing rows are never
// rewritten, so re-exporting grows the file.
func (w *Writer) Append(txns []api.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, t := range txns {
		category := t.Category
		if category == "" {
			category = api.UncategorizedSentinel
		}
		record := []string{
			t.Date.Format("2006-01-02"),
			t.Time,
			t.Merchant,
			t.Description,
			t.Amount.StringFixed(2),
			category,
			t.Person,
			t.Bank,
		}
		if err := w.writer.Write(record); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	w.logger.Debug("appended transactions to csv", "count", len(txns))
	return nil
}

// Close flushes and closes the export file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing csv file: %w", err)
	}

	w.logger.Info("csv export closed", "file", w.filePath)
	return nil
}
