package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment represents money received from a borrower against a loan
type Payment struct {
	ID          int64           `json:"id"`
	LoanID      LoanID          `json:"loan_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
	CreatedAt   time.Time       `json:"created_at"`
}
