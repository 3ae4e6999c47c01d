package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/finsight/pkg/storage"
	"github.com/ArionMiles/finsight/pkg/writer/csv"
)

// runExport queries stored transactions and appends them to a CSV file.
func runExport(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", "", "path to JSON config file")
	dbPath := fs.String("db", "", "SQLite database file (overrides config)")
	outPath := fs.String("out", "transactions.csv", "CSV output file")
	bank := fs.String("bank", "", "only export this bank")
	category := fs.String("category", "", "only export this category")
	from := fs.String("from", "", "start date (YYYY-MM-DD, inclusive)")
	to := fs.String("to", "", "end date (YYYY-MM-DD, inclusive)")
	like := fs.String("like", "", "only export descriptions containing this text")
	minAmount := fs.String("min", "", "minimum amount")
	maxAmount := fs.String("max", "", "maximum amount")
	limit := fs.Int("limit", 0, "maximum rows to export (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	filter := storage.Filter{
		Bank:            *bank,
		Category:        *category,
		DescriptionLike: *like,
		Limit:           *limit,
	}
	if *from != "" {
		filter.DateFrom, err = time.Parse("2006-01-02", *from)
		if err != nil {
			return fmt.Errorf("invalid -from date: %w", err)
		}
	}
	if *to != "" {
		filter.DateTo, err = time.Parse("2006-01-02", *to)
		if err != nil {
			return fmt.Errorf("invalid -to date: %w", err)
		}
	}
	if *minAmount != "" {
		d, err := decimal.NewFromString(*minAmount)
		if err != nil {
			return fmt.Errorf("invalid -min amount: %w", err)
		}
		filter.AmountMin = &d
	}
	if *maxAmount != "" {
		d, err := decimal.NewFromString(*maxAmount)
		if err != nil {
			return fmt.Errorf("invalid -max amount: %w", err)
		}
		filter.AmountMax = &d
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	txns, err := store.QueryTransactions(ctx, filter)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Println("no transactions matched")
		return nil
	}

	export, err := csv.New(*outPath, logger)
	if err != nil {
		return err
	}
	defer export.Close()

	if err := export.Append(txns); err != nil {
		return err
	}

	fmt.Printf("exported %d transactions to %s\n", len(txns), *outPath)
	return nil
}
