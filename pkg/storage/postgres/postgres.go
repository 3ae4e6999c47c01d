// Package postgres implements the transaction store on PostgreSQL,
// for setups where the database outlives a single machine.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/finsight/pkg/api"
	"github.com/ArionMiles/finsight/pkg/storage"
)

//go:embed 001_create_transactions.sql
var migrationSQL string

// Config holds the PostgreSQL store configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

// Store is a storage.Store backed by PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// New connects to PostgreSQL, runs migrations, and returns the store.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
	)

	s := &Store{pool: pool, logger: logger}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	s.logger.Info("running database migrations")
	if _, err := s.pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	s.logger.Info("migrations completed successfully")
	return nil
}

// StoreTransactions upserts the batch keyed on each record's natural key,
// plus one import audit row, inside a single transaction.
func (s *Store) StoreTransactions(ctx context.Context, txns []api.Transaction, bank, sourceDoc string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	total := decimal.Zero
	importDate := time.Now().UTC()

	for _, t := range txns {
		category := t.Category
		if category == "" {
			category = api.UncategorizedSentinel
		}
		var balance any
		if t.Balance != nil {
			balance = t.Balance.String()
		}
		var clock any
		if t.Time != "" {
			clock = t.Time
		}

		batch.Queue(`
			INSERT INTO transactions (
				bank_name, date, time, name, description, amount, category,
				balance, person, classified_by, reference_id, import_date
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (reference_id) DO UPDATE SET
				time          = EXCLUDED.time,
				name          = EXCLUDED.name,
				category      = EXCLUDED.category,
				balance       = EXCLUDED.balance,
				person        = EXCLUDED.person,
				classified_by = EXCLUDED.classified_by,
				import_date   = EXCLUDED.import_date,
				updated_at    = NOW()
		`,
			bank,
			t.Date,
			clock,
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
		total = total.Add(t.Amount)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < len(txns); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("upserting transaction %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("closing batch: %w", err)
	}

	if sourceDoc != "" {
		_, err := tx.Exec(ctx, `
			INSERT INTO imports (id, file_path, bank_name, import_date, transaction_count, total_amount)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.NewString(), sourceDoc, bank, importDate, len(txns), total.String())
		if err != nil {
			return 0, fmt.Errorf("recording import batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}

	s.logger.Info("stored transactions",
		"bank", bank,
		"count", len(txns),
		"source", sourceDoc,
	)
	return len(txns), nil
}

// QueryTransactions returns stored transactions matching the filter,
// newest first.
func (s *Store) QueryTransactions(ctx context.Context, f storage.Filter) ([]api.Transaction, error) {
	query := `
		SELECT bank_name, date, COALESCE(time, ''), name, description,
		       amount::text, category, balance::text, person, classified_by
		FROM transactions
	`
	var conditions []string
	var params []any
	arg := func(v any) string {
		params = append(params, v)
		return fmt.Sprintf("$%d", len(params))
	}

	if f.Bank != "" {
		conditions = append(conditions, "bank_name = "+arg(f.Bank))
	}
	if !f.DateFrom.IsZero() {
		conditions = append(conditions, "date >= "+arg(f.DateFrom))
	}
	if !f.DateTo.IsZero() {
		conditions = append(conditions, "date <= "+arg(f.DateTo))
	}
	if f.Category != "" {
		conditions = append(conditions, "category = "+arg(f.Category))
	}
	if f.DescriptionLike != "" {
		conditions = append(conditions, "description ILIKE "+arg("%"+f.DescriptionLike+"%"))
	}
	if f.AmountMin != nil {
		conditions = append(conditions, "amount >= "+arg(f.AmountMin.String()))
	}
	if f.AmountMax != nil {
		conditions = append(conditions, "amount <= "+arg(f.AmountMax.String()))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, time DESC NULLS LAST"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
		if f.Offset > 0 {
			query += " OFFSET " + arg(f.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []api.Transaction
	for rows.Next() {
		var (
			t            api.Transaction
			amountStr    string
			balanceStr   *string
			classifiedBy string
		)
		err := rows.Scan(&t.Bank, &t.Date, &t.Time, &t.Merchant, &t.Description,
			&amountStr, &t.Category, &balanceStr, &t.Person, &classifiedBy)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("stored amount %q: %w", amountStr, err)
		}
		if balanceStr != nil {
			if bal, err := decimal.NewFromString(*balanceStr); err == nil {
				t.Balance = &bal
			}
		}
		t.ClassifiedBy = api.ClassificationSource(classifiedBy)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stats reports row counts and totals per bank plus the stored date range.
func (s *Store) Stats(ctx context.Context) (*storage.Stats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT bank_name, COUNT(*), COALESCE(SUM(amount), 0)::text
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
		var total string
		if err := rows.Scan(&bs.Bank, &bs.Transactions, &total); err != nil {
			return nil, fmt.Errorf("scanning bank stats: %w", err)
		}
		bs.TotalAmount, err = decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("stored total %q: %w", total, err)
		}
		stats.Banks = append(stats.Banks, bs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var from, to *time.Time
	err = s.pool.QueryRow(ctx, `SELECT MIN(date), MAX(date) FROM transactions`).Scan(&from, &to)
	if err != nil {
		return nil, fmt.Errorf("querying date range: %w", err)
	}
	if from != nil {
		stats.DateFrom = from.Format("2006-01-02")
	}
	if to != nil {
		stats.DateTo = to.Format("2006-01-02")
	}
	return stats, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
