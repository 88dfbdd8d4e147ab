package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/Dan9191/loan-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Requires a reachable Postgres; set TEST_DB_CONN to run.
func TestSaveSnapshots(t *testing.T) {
	conn := os.Getenv("TEST_DB_CONN")
	if conn == "" {
		t.Skip("TEST_DB_CONN not set")
	}

	db, err := sql.Open("postgres", conn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	const loanID = models.LoanID(987654321)
	defer db.ExecContext(ctx, "DELETE FROM ledger.accrual_snapshots WHERE loan_id = $1", int64(loanID))

	freeze := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	results := []models.AccrualResult{
		{LoanID: loanID, ReferenceDate: freeze.AddDate(0, 0, 4), FreezeDate: freeze, InterestDue: decimal.RequireFromString("700.00"), ComputedAt: time.Now()},
		{LoanID: loanID, ReferenceDate: freeze.AddDate(0, 0, 5), FreezeDate: freeze, InterestDue: decimal.RequireFromString("700.00"), ComputedAt: time.Now()},
	}
	if err := repo.SaveSnapshots(ctx, results); err != nil {
		t.Fatalf("SaveSnapshots() error = %v", err)
	}

	var count int
	var total string
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*), SUM(interest_due)::text FROM ledger.accrual_snapshots WHERE loan_id = $1",
		int64(loanID),
	).Scan(&count, &total)
	if err != nil {
		t.Fatalf("failed to query snapshots: %v", err)
	}
	if count != 2 {
		t.Errorf("rows = %d, want 2", count)
	}
	if total != "1400.00" {
		t.Errorf("sum = %s, want 1400.00", total)
	}
}

func TestSaveSnapshots_EmptyIsNoop(t *testing.T) {
	repo := NewRepository(nil)
	if err := repo.SaveSnapshots(context.Background(), nil); err != nil {
		t.Errorf("SaveSnapshots(nil) error = %v", err)
	}
}
