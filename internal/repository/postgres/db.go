package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventhub/internal/domain"

	_ "github.com/lib/pq"
)

// Open opens a lib/pq connection pool and pings it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// CheckTransactional verifies that the connected server accepts read-write transactions.
// A hot standby or a read-only default session fails with ErrTransactionsUnavailable.
func CheckTransactional(ctx context.Context, db *sql.DB) error {
	var inRecovery bool
	var readOnly string
	err := db.QueryRowContext(ctx, `SELECT pg_is_in_recovery(), current_setting('transaction_read_only')`).
		Scan(&inRecovery, &readOnly)
	if err != nil {
		return fmt.Errorf("check transactional: %w", mapError(err))
	}
	if inRecovery {
		return fmt.Errorf("database is in recovery: %w", domain.ErrTransactionsUnavailable)
	}
	if readOnly == "on" {
		return fmt.Errorf("session is read-only: %w", domain.ErrTransactionsUnavailable)
	}
	return nil
}
