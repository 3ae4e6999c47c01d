package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/finsight/pkg/api"
	"github.com/ArionMiles/finsight/pkg/storage"
)

// TestNew_ConnectionFailure tests that the store returns an error when the
// connection fails.
func TestNew_ConnectionFailure(t *testing.T) {
	cfg := Config{
		Host:     "nonexistent-host",
		Port:     5432,
		Database: "finsight",
		User:     "finsight",
		Password: "password",
		SSLMode:  "disable",
	}

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Error("expected error when connecting to nonexistent host, got nil")
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	if os.Getenv("TEST_POSTGRES_HOST") == "" {
		t.Skip("TEST_POSTGRES_HOST not set, skipping integration test")
	}
	return Config{
		Host:     os.Getenv("TEST_POSTGRES_HOST"),
		Database: os.Getenv("TEST_POSTGRES_DB"),
		User:     os.Getenv("TEST_POSTGRES_USER"),
		Password: os.Getenv("TEST_POSTGRES_PASSWORD"),
	}
}

func TestStoreTransactions_Integration(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	s, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	amount, _ := decimal.NewFromString("31.59")
	txns := []api.Transaction{{
		Date:         time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
		Description:  "integration-test-row",
		Amount:       amount,
		Category:     api.UncategorizedSentinel,
		Bank:         "test-bank",
		ClassifiedBy: api.ClassifiedByRule,
	}}

	// Same document twice: the upsert keeps the table stable.
	for i := 0; i < 2; i++ {
		if _, err := s.StoreTransactions(ctx, txns, "test-bank", "test.pdf"); err != nil {
			t.Fatalf("StoreTransactions: %v", err)
		}
	}

	got, err := s.QueryTransactions(ctx, storage.Filter{
		Bank:            "test-bank",
		DescriptionLike: "integration-test-row",
	})
	if err != nil {
		t.Fatalf("QueryTransactions: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d rows, want 1 after duplicate import", len(got))
	}
	if len(got) > 0 && !got[0].Amount.Equal(amount) {
		t.Errorf("amount = %s, want 31.59", got[0].Amount)
	}
}

func TestStats_Integration(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	s, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := s.Stats(ctx); err != nil {
		t.Errorf("Stats: %v", err)
	}
}
