// Package accrual computes simple interest owed on a loan up to the monthly freeze date.
package accrual

import (
	"time"

	"github.com/Dan9191/loan-ledger/internal/models"
	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// Date truncates t to midnight of its UTC calendar day
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FreezeDate returns the first day of the UTC month containing t.
// Interest is never accrued past this date.
func FreezeDate(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// nextMonthStart returns the first day of the month after the one containing t
func nextMonthStart(t time.Time) time.Time {
	return FreezeDate(t).AddDate(0, 1, 0)
}

// DaysBetween returns the number of whole calendar days from a to b
func DaysBetween(a, b time.Time) int64 {
	return int64(Date(b).Sub(Date(a)).Hours() / 24)
}

// DaysInMonth returns the number of days in the month containing t
func DaysInMonth(t time.Time) int64 {
	return DaysBetween(FreezeDate(t), nextMonthStart(t))
}

// MonthlyInterest returns principal * rate/100 / 12, unrounded
func MonthlyInterest(principal, annualRatePercent decimal.Decimal) decimal.Decimal {
	return principal.Mul(annualRatePercent).Div(hundred).Div(monthsInYear)
}

// TotalPaid sums every payment amount
func TotalPaid(payments []models.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Accrued returns the gross interest accrued from the loan date up to the
// freeze date of referenceDate, before payments and rounding.
func Accrued(loan models.Loan, referenceDate time.Time) decimal.Decimal {
	freeze := FreezeDate(referenceDate)
	loanDate := Date(loan.LoanDate)
	if !loanDate.Before(freeze) {
		return decimal.Zero
	}

	monthly := MonthlyInterest(loan.Principal, loan.AnnualRatePercent)
	daysInFirstMonth := decimal.NewFromInt(DaysInMonth(loanDate))
	next := nextMonthStart(loanDate)

	if !freeze.After(next) {
		days := decimal.NewFromInt(DaysBetween(loanDate, freeze))
		return monthly.Mul(days).Div(daysInFirstMonth)
	}

	days := decimal.NewFromInt(DaysBetween(loanDate, next))
	total := monthly.Mul(days).Div(daysInFirstMonth)
	for m := next; m.Before(freeze); m = m.AddDate(0, 1, 0) {
		total = total.Add(monthly)
	}
	return total
}

// ComputeInterestDue returns the interest owed on loan as of referenceDate.
// All payments are subtracted regardless of their date; the result is
// floored at zero and rounded to two decimal places.
func ComputeInterestDue(loan models.Loan, payments []models.Payment, referenceDate time.Time) decimal.Decimal {
	due := Accrued(loan, referenceDate).Sub(TotalPaid(payments))
	if due.IsNegative() {
		return decimal.Zero
	}
	return due.Round(2)
}
