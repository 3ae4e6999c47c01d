// Package storage defines the persistence contract for canonical
// transactions: idempotent upserts keyed on the natural key, flexible
// querying, and per-import audit records.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/finsight/pkg/api"
)

// Filter narrows QueryTransactions results. Zero values mean "no
// constraint".
type Filter struct {
	Bank     string
	DateFrom time.Time
	DateTo   time.Time
	Category string
	// DescriptionLike matches descriptions containing this substring.
	DescriptionLike string
	AmountMin       *decimal.Decimal
	AmountMax       *decimal.Decimal
	Limit           int
	Offset          int
}

// BankStats summarizes the stored rows for one bank.
type BankStats struct {
	Bank         string
	Transactions int
	TotalAmount  decimal.Decimal
}

// Stats summarizes the whole store.
type Stats struct {
	Banks []BankStats
	// DateFrom and DateTo bound the stored dates in ISO form; empty when
	// the store is empty.
	DateFrom string
	DateTo   string
}

// Store upserts canonical transactions keyed on their natural key.
//
// StoreTransactions is idempotent: re-importing the same document replaces
// existing rows instead of duplicating them (a natural-key collision is a
// silent replace, never an error), records one import-batch audit row per
// call, and runs each call as a single all-or-nothing unit — rollback on
// failure, commit on success — so an interrupted import cannot leave the
// audit record out of sync with the stored rows.
type Store interface {
	StoreTransactions(ctx context.Context, txns []api.Transaction, bank, sourceDoc string) (int, error)
	QueryTransactions(ctx context.Context, f Filter) ([]api.Transaction, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}
