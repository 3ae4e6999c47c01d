// Command finsight imports bank statement documents into a transaction
// database and exports them to CSV.
package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/ArionMiles/finsight/pkg/logging"
)

const version = "0.1.0"

var (
	//go:embed config/merchants.json
	merchantsJSON []byte
	//go:embed config/categories.json
	categoriesJSON []byte
	//go:embed config/banks.json
	banksJSON []byte
)

func main() {
	logger := logging.Setup(logging.DefaultConfig())

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(os.Args[2:], logger)
	case "export":
		err = runExport(os.Args[2:], logger)
	case "status":
		err = runStatus(os.Args[2:], logger)
	case "version", "-v", "--version":
		fmt.Printf("finsight %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`finsight - personal finance statement importer

Usage:
  finsight import [flags] <statement>...   Parse statements and store transactions
  finsight export [flags]                  Export stored transactions to CSV
  finsight status [flags]                  Check configuration and database
  finsight version                         Print version
  finsight help                            Show this help

Run 'finsight <command> -h' for command flags.
`)
}
