package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanID identifies a loan. IDs are assigned sequentially and never reused.
type LoanID int64

// Loan represents money lent to a borrower
type Loan struct {
	ID                LoanID          `json:"id"`
	BorrowerName      string          `json:"borrower_name"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	LoanDate          time.Time       `json:"loan_date"`
	CreatedAt         time.Time       `json:"created_at"`
}

// LoanView is the read-only projection of a loan handed to the presentation layer
type LoanView struct {
	LoanID            LoanID          `json:"id"`
	Borrower          string          `json:"borrower"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	LoanDate          string          `json:"loan_date"` // Format: YYYY-MM-DD
	MonthlyInterest   decimal.Decimal `json:"monthly_interest"`
	InterestDue       decimal.Decimal `json:"interest_due"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	PaymentCount      int             `json:"payment_count"`
}
