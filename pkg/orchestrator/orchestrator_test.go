package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ArionMiles/finsight/pkg/api"
	"github.com/ArionMiles/finsight/pkg/classify"
	"github.com/ArionMiles/finsight/pkg/parser"
	"github.com/ArionMiles/finsight/pkg/parser/delimited"
	"github.com/ArionMiles/finsight/pkg/record"
	"github.com/ArionMiles/finsight/pkg/storage"
	"github.com/ArionMiles/finsight/pkg/storage/sqlite"
	"github.com/ArionMiles/finsight/pkg/writer/csv"
)

func testRegistry(t *testing.T) *parser.Registry {
	t.Helper()
	r := parser.NewRegistry()
	err := r.Register(parser.Format{
		Name:       "sbi",
		Extensions: []string{".csv"},
		New:        func() api.Parser { return delimited.New(nil) },
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func testBuilder() *record.Builder {
	engine := classify.New(classify.Config{
		Merchants: classify.Dictionary{
			{Name: "Swiggy", Triggers: []string{"swiggy"}},
		},
		Categories: classify.Dictionary{
			{Name: "Food and groceries", Triggers: []string{"swiggy"}},
		},
	}, nil)
	return record.NewBuilder(engine)
}

func writeStatement(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statement.csv")
	content := strings.Join([]string{
		"Date,Description,Debit,Credit,Balance",
		"02/01/2025,UPI/swiggy/dinner,450,,11550.00",
		"03/01/2025,SALARY JAN,,55000,66550.00",
		"bad-date,MYSTERY ROW,10,,",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportDocument_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	store, err := sqlite.Open(filepath.Join(dir, "test.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	export, err := csv.New(filepath.Join(dir, "out.csv"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer export.Close()

	imp := New(testRegistry(t), testBuilder(), store, export, nil)
	path := writeStatement(t)

	result, err := imp.ImportDocument(context.Background(), path, "sbi", "")
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}

	if result.Parsed != 2 {
		t.Errorf("Parsed = %d, want 2", result.Parsed)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if result.Stored != 2 {
		t.Errorf("Stored = %d, want 2", result.Stored)
	}
	if result.Exported != 2 {
		t.Errorf("Exported = %d, want 2", result.Exported)
	}

	txns, err := store.QueryTransactions(context.Background(), storage.Filter{Category: "Food and groceries"})
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 1 {
		t.Fatalf("classified rows = %d, want 1", len(txns))
	}
	if txns[0].Merchant != "Swiggy" {
		t.Errorf("merchant = %q", txns[0].Merchant)
	}
}

func TestImportDocument_ReimportIsStable(t *testing.T) {
	dir := t.TempDir()
	store, err := sqlite.Open(filepath.Join(dir, "test.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	imp := New(testRegistry(t), testBuilder(), store, nil, nil)
	path := writeStatement(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := imp.ImportDocument(ctx, path, "sbi", ""); err != nil {
			t.Fatalf("import %d: %v", i, err)
		}
	}

	txns, err := store.QueryTransactions(ctx, storage.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 2 {
		t.Errorf("rows after re-import = %d, want 2", len(txns))
	}
}

func TestImportDocument_ExportGrowsOnReimport(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.csv")
	export, err := csv.New(outPath, nil)
	if err != nil {
		t.Fatal(err)
	}

	imp := New(testRegistry(t), testBuilder(), nil, export, nil)
	path := writeStatement(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := imp.ImportDocument(ctx, path, "sbi", ""); err != nil {
			t.Fatal(err)
		}
	}
	export.Close()

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Count(strings.TrimSpace(string(data)), "\n") + 1
	if lines != 5 {
		t.Errorf("export lines = %d, want header + 4 (duplicates kept)", lines)
	}
}

func TestImportDocument_MissingFile(t *testing.T) {
	imp := New(testRegistry(t), testBuilder(), nil, nil, nil)
	_, err := imp.ImportDocument(context.Background(), "/does/not/exist.csv", "sbi", "")
	if !errors.Is(err, api.ErrDocumentOpen) {
		t.Errorf("error = %v, want ErrDocumentOpen", err)
	}
}

func TestImportDocument_UnknownBank(t *testing.T) {
	imp := New(testRegistry(t), testBuilder(), nil, nil, nil)
	_, err := imp.ImportDocument(context.Background(), "x.csv", "kotak", "")
	if !errors.Is(err, api.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}
