package api

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNaturalKey(t *testing.T) {
	amount, _ := decimal.NewFromString("31.59")
	txn := Transaction{
		Bank:        "HDFC Credit Card",
		Date:        time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
		Description: "IGST-CI@18%",
		Amount:      amount,
	}

	want := "HDFC Credit Card_2025-10-15_IGST-CI@18%_31.59"
	if got := txn.NaturalKey(); got != want {
		t.Errorf("NaturalKey() = %q, want %q", got, want)
	}
}

func TestNaturalKey_IgnoresMutableFields(t *testing.T) {
	amount := decimal.NewFromInt(500)
	base := Transaction{
		Bank:        "sbi",
		Date:        time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Description: "UPI/swiggy/payment",
		Amount:      amount,
		Category:    UncategorizedSentinel,
	}
	reclassified := base
	reclassified.Category = "Food and groceries"
	reclassified.Merchant = "Swiggy"
	reclassified.ClassifiedBy = ClassifiedByRule

	if base.NaturalKey() != reclassified.NaturalKey() {
		t.Error("reclassification changed the natural key")
	}
}

func TestNaturalKey_AmountFormStable(t *testing.T) {
	// "500" and "500.00" are numerically equal and must key identically,
	// otherwise a bank changing its amount formatting would duplicate
	// stored rows on the next import.
	a, _ := decimal.NewFromString("500")
	b, _ := decimal.NewFromString("500.00")
	ta := Transaction{Bank: "x", Description: "d", Amount: a}
	tb := Transaction{Bank: "x", Description: "d", Amount: b}
	if ta.NaturalKey() != tb.NaturalKey() {
		t.Errorf("keys differ: %q vs %q", ta.NaturalKey(), tb.NaturalKey())
	}
}

func TestOpenFailure(t *testing.T) {
	cause := errors.New("file locked")
	err := OpenFailure("/tmp/statement.pdf", cause)

	if !errors.Is(err, ErrDocumentOpen) {
		t.Error("expected error chain to include ErrDocumentOpen")
	}
	var docErr *DocumentError
	if !errors.As(err, &docErr) {
		t.Fatal("expected *DocumentError in chain")
	}
	if docErr.Path != "/tmp/statement.pdf" {
		t.Errorf("Path = %q", docErr.Path)
	}
}
