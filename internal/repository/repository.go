package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dan9191/loan-ledger/internal/models"
	"github.com/lib/pq"
)

const schema = `
CREATE SCHEMA IF NOT EXISTS ledger;

CREATE TABLE IF NOT EXISTS ledger.accrual_snapshots (
    id BIGSERIAL PRIMARY KEY,
    loan_id BIGINT NOT NULL,
    reference_date DATE NOT NULL,
    freeze_date DATE NOT NULL,
    interest_due NUMERIC(18, 2) NOT NULL,
    computed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accrual_snapshots_loan_id ON ledger.accrual_snapshots(loan_id);
`

// Repository exports accrual snapshots to Postgres for reporting.
// Loans and payments themselves are never persisted.
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the snapshot table if it does not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveSnapshots bulk-inserts one row per accrual result
func (r *Repository) SaveSnapshots(ctx context.Context, results []models.AccrualResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema("ledger", "accrual_snapshots",
		"loan_id", "reference_date", "freeze_date", "interest_due", "computed_at"))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	for _, res := range results {
		_, err := stmt.ExecContext(ctx,
			int64(res.LoanID), res.ReferenceDate, res.FreezeDate, res.InterestDue.StringFixed(2), res.ComputedAt)
		if err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy snapshot for loan %d: %w", res.LoanID, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush snapshots: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close copy statement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}
