package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccrualResult is the last computed interest due for a loan.
// It is derived data and is replaced on every recomputation.
type AccrualResult struct {
	LoanID        LoanID          `json:"loan_id"`
	ReferenceDate time.Time       `json:"reference_date"`
	FreezeDate    time.Time       `json:"freeze_date"`
	InterestDue   decimal.Decimal `json:"interest_due"`
	ComputedAt    time.Time       `json:"computed_at"`
}
