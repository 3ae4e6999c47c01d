package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArionMiles/finsight/pkg/api"
	"github.com/ArionMiles/finsight/pkg/classify"
	"github.com/ArionMiles/finsight/pkg/classify/gemini"
	"github.com/ArionMiles/finsight/pkg/config"
	"github.com/ArionMiles/finsight/pkg/orchestrator"
	"github.com/ArionMiles/finsight/pkg/parser"
	"github.com/ArionMiles/finsight/pkg/parser/delimited"
	"github.com/ArionMiles/finsight/pkg/parser/pdftable"
	"github.com/ArionMiles/finsight/pkg/parser/pdftext"
	"github.com/ArionMiles/finsight/pkg/record"
	"github.com/ArionMiles/finsight/pkg/storage"
	"github.com/ArionMiles/finsight/pkg/storage/postgres"
	"github.com/ArionMiles/finsight/pkg/storage/sqlite"
	"github.com/ArionMiles/finsight/pkg/writer/csv"
)

// runImport parses one or more statement documents and stores the
// extracted transactions.
func runImport(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	bank := fs.String("bank", "", "bank name (see banks.json); empty or 'auto' infers from extension")
	password := fs.String("password", "", "password for encrypted PDF statements")
	configPath := fs.String("config", "", "path to JSON config file")
	dbPath := fs.String("db", "", "SQLite database file (overrides config)")
	csvPath := fs.String("csv", "", "CSV export file (overrides config)")
	noStore := fs.Bool("no-store", false, "parse and classify only, skip the database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no statement files given")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *csvPath != "" {
		cfg.CSVPath = *csvPath
	}

	ctx := context.Background()

	engine, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg.Banks, logger)
	if err != nil {
		return err
	}

	var store storage.Store
	if !*noStore {
		store, err = openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var export *csv.Writer
	if cfg.CSVPath != "" {
		export, err = csv.New(cfg.CSVPath, logger)
		if err != nil {
			return err
		}
		defer export.Close()
	}

	builder := record.NewBuilder(engine)
	builder.Person = cfg.Person
	importer := orchestrator.New(registry, builder, store, export, logger)

	for _, path := range fs.Args() {
		pw := *password
		if pw == "" {
			pw = bankPassword(cfg.Banks, *bank)
		}
		result, err := importer.ImportDocument(ctx, path, *bank, pw)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		fmt.Printf("%s: %d transactions (%d skipped)\n", path, result.Parsed, result.Skipped)
	}
	return nil
}

// loadConfig merges file/environment config with the embedded dictionaries.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.Merchants == nil {
		cfg.Merchants, err = config.ParseDictionary(merchantsJSON)
		if err != nil {
			return nil, fmt.Errorf("embedded merchants: %w", err)
		}
	}
	if cfg.Categories == nil {
		cfg.Categories, err = config.ParseDictionary(categoriesJSON)
		if err != nil {
			return nil, fmt.Errorf("embedded categories: %w", err)
		}
	}
	if cfg.Banks == nil {
		cfg.Banks, err = config.ParseBanks(banksJSON)
		if err != nil {
			return nil, fmt.Errorf("embedded banks: %w", err)
		}
	}
	return cfg, nil
}

// buildEngine assembles the classification engine, with the Gemini
// classifier attached when enabled.
func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*classify.Engine, error) {
	ecfg := classify.Config{
		Merchants:  cfg.Merchants,
		Categories: cfg.Categories,
		Timeout:    time.Duration(cfg.GeminiTimeoutSeconds) * time.Second,
	}

	if cfg.GeminiEnabled {
		external, err := gemini.New(ctx, gemini.Config{
			Model:      cfg.GeminiModel,
			Merchants:  dictionaryNames(cfg.Merchants),
			Categories: dictionaryNames(cfg.Categories),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini classifier: %w", err)
		}
		ecfg.External = external
	}

	return classify.New(ecfg, logger), nil
}

func dictionaryNames(d classify.Dictionary) []string {
	names := make([]string, 0, len(d))
	for _, e := range d {
		names = append(names, e.Name)
	}
	return names
}

// buildRegistry registers a format entry per configured bank.
func buildRegistry(banks []config.Bank, logger *slog.Logger) (*parser.Registry, error) {
	registry := parser.NewRegistry()
	for _, b := range banks {
		factory, err := parserFactory(b.Format, logger)
		if err != nil {
			return nil, fmt.Errorf("bank %q: %w", b.Name, err)
		}
		err = registry.Register(parser.Format{
			Name:        b.Name,
			Description: fmt.Sprintf("%s statements (%s)", b.Name, b.Format),
			Extensions:  b.Extensions,
			New:         factory,
		})
		if err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func parserFactory(format string, logger *slog.Logger) (parser.Factory, error) {
	switch format {
	case "pdftable":
		return func() api.Parser { return pdftable.New(logger) }, nil
	case "pdftext":
		return func() api.Parser { return pdftext.New(logger) }, nil
	case "delimited":
		return func() api.Parser { return delimited.New(logger) }, nil
	default:
		return nil, fmt.Errorf("unknown parser format %q", format)
	}
}

func bankPassword(banks []config.Bank, bank string) string {
	for _, b := range banks {
		if b.Name == bank {
			return b.Password
		}
	}
	return ""
}

// openStore picks PostgreSQL when configured, SQLite otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.Postgres.Host != "" {
		return postgres.New(ctx, postgres.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
		}, logger)
	}
	return sqlite.Open(cfg.DBPath, logger)
}
