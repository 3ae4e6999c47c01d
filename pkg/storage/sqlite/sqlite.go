// Package sqlite implements the transaction store on an embedded SQLite
// database. This is the default backend: a single local file, no server.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/ArionMiles/finsight/pkg/api"
	"github.com/ArionMiles/finsight/pkg/storage"
)

//go:embed schema.sql
var schemaSQL string

// Store is a storage.Store backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Open opens (or creates) the database at path and ensures the schema
// exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	logger.Info("opened sqlite store", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// StoreTransactions upserts the batch keyed on each record's natural key
// and writes one import audit row, all inside a single transaction. A key
// collision replaces the stored row (category and classification metadata
// included), so re-importing an unchanged document stores zero net-new
// logical rows.
func (s *Store) StoreTransactions(ctx context.Context, txns []api.Transaction, bank, sourceDoc string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	stored := 0
	total := decimal.Zero
	importDate := time.Now().UTC().Format(time.RFC3339)

	for _, t := range txns {
		category := t.Category
		if category == "" {
			category = api.UncategorizedSentinel
		}
		var balance any
		if t.Balance != nil {
			balance = t.Balance.String()
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions
				(bank_name, date, time, name, description, amount, category,
				 balance, person, classified_by, reference_id, import_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(reference_id) DO UPDATE SET
				time          = excluded.time,
				name          = excluded.name,
				category      = excluded.category,
				balance       = excluded.balance,
				person        = excluded.person,
				classified_by = excluded.classified_by,
				import_date   = excluded.import_date
		`,
			bank,
			t.Date.Format("2006-01-02"),
			nullIfEmpty(t.Time),
			t.Merchant,
			t.Description,
			t.Amount.String(),
			category,
			balance,
			t.Person,
			string(t.ClassifiedBy),
			t.NaturalKey(),
			importDate,
		)
		if err != nil {
			return 0, fmt.Errorf("upserting transaction: %w", err)
		}
		stored++
		total = total.Add(t.Amount)
	}

	if sourceDoc != "" {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO imports (id, file_path, bank_name, import_date, transaction_count, total_amount)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), sourceDoc, bank, importDate, stored, total.String())
		if err != nil {
			return 0, fmt.Errorf("recording import batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}

	s.logger.Info("stored transactions",
		"bank", bank,
		"count", stored,
		"source", sourceDoc,
	)
	return stored, nil
}

// QueryTransactions returns stored transactions matching the filter,
// newest first.
func (s *Store) QueryTransactions(ctx context.Context, f storage.Filter) ([]api.Transaction, error) {
	query := `
		SELECT bank_name, date, time, name, description, amount, category,
		       balance, person, classified_by
		FROM transactions
		WHERE 1=1
	`
	var conditions []string
	var params []any

	if f.Bank != "" {
		conditions = append(conditions, "bank_name = ?")
		params = append(params, f.Bank)
	}
	if !f.DateFrom.IsZero() {
		conditions = append(conditions, "date >= ?")
		params = append(params, f.DateFrom.Format("2006-01-02"))
	}
	if !f.DateTo.IsZero() {
		conditions = append(conditions, "date <= ?")
		params = append(params, f.DateTo.Format("2006-01-02"))
	}
	if f.Category != "" {
		conditions = append(conditions, "category = ?")
		params = append(params, f.Category)
	}
	if f.DescriptionLike != "" {
		conditions = append(conditions, "description LIKE ?")
		params = append(params, "%"+f.DescriptionLike+"%")
	}
	if f.AmountMin != nil {
		conditions = append(conditions, "CAST(amount AS REAL) >= ?")
		params = append(params, f.AmountMin.InexactFloat64())
	}
	if f.AmountMax != nil {
		conditions = append(conditions, "CAST(amount AS REAL) <= ?")
		params = append(params, f.AmountMax.InexactFloat64())
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, time DESC"

	if f.Limit > 0 {
		query += " LIMIT ?"
		params = append(params, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			params = append(params, f.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []api.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(rows *sql.Rows) (api.Transaction, error) {
	var (
		t            api.Transaction
		dateStr      string
		amountStr    string
		clock        sql.NullString
		balance      sql.NullString
		classifiedBy string
	)
	err := rows.Scan(&t.Bank, &dateStr, &clock, &t.Merchant, &t.Description,
		&amountStr, &t.Category, &balance, &t.Person, &classifiedBy)
	if err != nil {
		return api.Transaction{}, fmt.Errorf("scanning transaction: %w", err)
	}

	t.Date, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return api.Transaction{}, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	t.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return api.Transaction{}, fmt.Errorf("stored amount %q: %w", amountStr, err)
	}
	if clock.Valid {
		t.Time = clock.String
	}
	if balance.Valid {
		if bal, err := decimal.NewFromString(balance.String); err == nil {
			t.Balance = &bal
		}
	}
	t.ClassifiedBy = api.ClassificationSource(classifiedBy)
	return t, nil
}

// Stats reports row counts and totals per bank plus the stored date range.
func (s *Store) Stats(ctx context.Context) (*storage.Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bank_name, COUNT(*), COALESCE(SUM(CAST(amount AS REAL)), 0)
		FROM transactions
		GROUP BY bank_name
		ORDER BY COUNT(*) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying bank stats: %w", err)
	}
	defer rows.Close()

	stats := &storage.Stats{}
	for rows.Next() {
		var bs storage.BankStats
		var total float64
		if err := rows.Scan(&bs.Bank, &bs.Transactions, &total); err != nil {
			return nil, fmt.Errorf("scanning bank stats: %w", err)
		}
		bs.TotalAmount = decimal.NewFromFloat(total).Round(2)
		stats.Banks = append(stats.Banks, bs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var from, to sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT MIN(date), MAX(date) FROM transactions`).Scan(&from, &to)
	if err != nil {
		return nil, fmt.Errorf("querying date range: %w", err)
	}
	if from.Valid {
		stats.DateFrom = from.String
	}
	if to.Valid {
		stats.DateTo = to.String
	}
	return stats, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
