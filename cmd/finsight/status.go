package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ArionMiles/finsight/pkg/storage/sqlite"
)

// runStatus checks the configuration, dictionaries, and database.
func runStatus(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "path to JSON config file")
	dbPath := fs.String("db", "", "SQLite database file (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println("=== Finsight Status ===")
	fmt.Println()

	allGood := true

	cfg, err := loadConfig(*configPath)
	if *configPath != "" {
		fmt.Printf("Config file (%s): ", *configPath)
		if err != nil {
			fmt.Printf("✗ %v\n", err)
			allGood = false
		} else {
			fmt.Println("✓ Found")
		}
	}
	if err != nil {
		printFinalStatus(false)
		return nil
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	fmt.Printf("Merchant dictionary: ✓ %d entries\n", len(cfg.Merchants))
	fmt.Printf("Category dictionary: ✓ %d entries\n", len(cfg.Categories))
	fmt.Printf("Configured banks: ✓ %d\n", len(cfg.Banks))

	fmt.Printf("External classifier: ")
	if cfg.GeminiEnabled {
		if os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != "" {
			fmt.Println("✓ Enabled")
		} else {
			fmt.Println("✗ Enabled but no API key in environment")
			allGood = false
		}
	} else {
		fmt.Println("- Disabled (rule-based only)")
	}

	fmt.Printf("Database (%s): ", cfg.DBPath)
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		fmt.Println("- Not created yet")
	} else {
		store, err := sqlite.Open(cfg.DBPath, logger)
		if err != nil {
			fmt.Printf("✗ %v\n", err)
			allGood = false
		} else {
			defer store.Close()
			stats, err := store.Stats(context.Background())
			if err != nil {
				fmt.Printf("✗ %v\n", err)
				allGood = false
			} else {
				total := 0
				for _, b := range stats.Banks {
					total += b.Transactions
				}
				fmt.Printf("✓ %d transactions", total)
				if stats.DateFrom != "" {
					fmt.Printf(" (%s to %s)", stats.DateFrom, stats.DateTo)
				}
				fmt.Println()
				for _, b := range stats.Banks {
					fmt.Printf("  %s: %d transactions, total %s\n", b.Bank, b.Transactions, b.TotalAmount.StringFixed(2))
				}
			}
		}
	}

	printFinalStatus(allGood)
	return nil
}

func printFinalStatus(allGood bool) {
	fmt.Println()
	if allGood {
		fmt.Println("✓ All checks passed")
	} else {
		fmt.Println("✗ Some checks failed")
	}
}
